package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/modport/modport/internal/domain"
)

func newStatusCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show installed mods and available updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			stop := startSpinner(cmd.Context(), "Scanning mods folder...")
			mods, err := tc.checker.Scan(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			if len(mods) == 0 {
				fmt.Printf("\n%s No mods installed\n", dim("○"))
				return nil
			}

			outdated, _ := tc.checker.CheckUpdates(cmd.Context(), refresh)

			names := make([]string, 0, len(mods))
			for name := range mods {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Println()
			for _, name := range names {
				mod := mods[name]
				switch mod.Status {
				case domain.StatusOutdated:
					fmt.Printf("%s %s%s%s  %s\n", yellow("↑"), bold(mod.Name), bold("@"), bold(mod.Version),
						yellow(fmt.Sprintf("→ %s", mod.LatestVersion)))
				case domain.StatusUpToDate:
					fmt.Printf("%s %s%s%s\n", green("✓"), bold(mod.Name), bold("@"), bold(mod.Version))
				default:
					fmt.Printf("%s %s%s%s %s\n", dim("?"), bold(mod.Name), bold("@"), bold(mod.Version),
						dim("(not on portal)"))
				}
			}

			stats := tc.checker.Statistics()
			fmt.Printf("\n%d installed, %s up to date, %s outdated, %s unknown\n",
				len(mods),
				green(stats[domain.StatusUpToDate]),
				yellow(stats[domain.StatusOutdated]),
				dim(stats[domain.StatusUnknown]))

			if len(outdated) > 0 {
				fmt.Printf("\nRun %s to upgrade\n", cyan("modport update"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a portal refresh")
	return cmd
}
