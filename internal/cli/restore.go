package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modport/modport/internal/backup"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>...",
		Short: "Restore mods from backups or a snapshot archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			var errs int
			for _, file := range args {
				if strings.HasSuffix(file, ".tar.zst") || strings.HasSuffix(file, ".tar.xz") {
					if err := backup.RestoreSnapshot(file, tc.cfg.ModsDir); err != nil {
						fmt.Printf("%s %s: %v\n", red("✗"), file, err)
						errs++
						continue
					}
					fmt.Printf("%s Restored snapshot %s\n", green("✓"), bold(file))
					continue
				}

				restored, err := backup.RestoreMod(file, tc.cfg.ModsDir)
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), file, err)
					errs++
					continue
				}
				fmt.Printf("%s Restored %s\n", green("✓"), bold(restored))
			}

			if errs > 0 {
				return fmt.Errorf("failed to restore %d file(s)", errs)
			}
			return nil
		},
	}
}
