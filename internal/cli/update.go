package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [name...]",
		Short: "Update installed mods to their latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			stop := startSpinner(cmd.Context(), "Checking for updates...")
			_, err = tc.checker.Scan(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			successful, failed := tc.checker.UpdateMods(cmd.Context(), args)

			fmt.Println()
			for _, name := range successful {
				fmt.Printf("%s %s updated\n", green("✓"), bold(name))
			}
			for _, name := range failed {
				fmt.Printf("%s %s not updated\n", dim("○"), name)
			}

			if len(successful) == 0 && len(failed) == 0 {
				fmt.Printf("%s Everything up to date\n", green("✓"))
			}
			return nil
		},
	}

	return cmd
}
