package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var show int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the mod portal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			stop := startSpinner(cmd.Context(), fmt.Sprintf("Searching %s...", args[0]))
			results := tc.portal.Search(cmd.Context(), args[0], show)
			stop()

			if len(results) == 0 {
				fmt.Printf("%s No results found for %q\n", dim("○"), args[0])
				return nil
			}

			fmt.Printf("\nShowing %s results for %q\n\n", green(len(results)), args[0])
			for _, hit := range results {
				fmt.Printf("%s %s\n", green("●"), bold(hit.Name))
				fmt.Printf("  %s %s\n", cyan("title:"), hit.Title)
				if hit.Owner != "" {
					fmt.Printf("  %s %s\n", cyan("owner:"), hit.Owner)
				}
				if hit.Summary != "" {
					fmt.Printf("  %s %s\n", cyan("summary:"), hit.Summary)
				}
				fmt.Printf("  %s %s\n", cyan("downloads:"), dim(fmt.Sprint(hit.Downloads)))
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&show, "show", "s", 10, "Shows first n mods")
	return cmd
}
