package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/modport/modport/internal/domain"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed mods without contacting the portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			installed, err := tc.scanner.Installed()
			if err != nil {
				return err
			}

			if len(installed) == 0 {
				fmt.Printf("\n%s No mods installed\n", dim("○"))
				return nil
			}

			names := make([]string, 0, len(installed))
			for name := range installed {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("Installed mods:\n\n")
			for _, name := range names {
				mod := installed[name]
				line := fmt.Sprintf(" %s", bold(fmt.Sprintf("%s@%s", mod.Name, mod.Version)))
				if mod.Title != mod.Name {
					line += fmt.Sprintf("  %s", dim(mod.Title))
				}
				if mod.FileSize > 0 {
					line += fmt.Sprintf("  %s", dim(domain.FormatFileSize(mod.FileSize)))
				}
				fmt.Println(line)
			}

			return nil
		},
	}
}
