package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>...",
		Short: "Uninstall mods",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			// a plain folder scan is enough; no portal round-trip for removal
			installed, err := tc.scanner.Installed()
			if err != nil {
				return err
			}

			var errs int
			for _, name := range args {
				mod, ok := installed[name]
				if !ok {
					fmt.Printf("%s %s is not installed\n", red("✗"), name)
					errs++
					continue
				}

				if err := removeMod(tc, mod.FilePath, name); err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), name, err)
					errs++
					continue
				}
				fmt.Printf("%s Uninstalled %s%s%s\n", green("✓"), bold(name), bold("@"), bold(mod.Version))
			}

			if errs > 0 {
				return fmt.Errorf("failed to remove %d mod(s)", errs)
			}
			return nil
		},
	}

	return cmd
}

func removeMod(tc *toolchain, path, name string) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	if tc.cache != nil {
		_ = tc.cache.Forget(name)
	}
	return nil
}
