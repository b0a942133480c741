package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/modport/modport/internal/backup"
)

func newBackupCmd() *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "backup [name...]",
		Short: "Back up mods, or snapshot the whole mods folder",
		Long: `Without arguments and with --snapshot, writes every installed mod into one
compressed archive (.tar.zst or .tar.xz). With mod names, copies each mod's
zip into the backup folder inside the mods directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			if snapshot != "" {
				if len(args) > 0 {
					return fmt.Errorf("--snapshot backs up everything; mod names make no sense here")
				}
				out := snapshot
				if out == "auto" {
					out = filepath.Join(tc.cfg.ModsDir,
						fmt.Sprintf("mods-%s.tar.zst", time.Now().Format("20060102")))
				}
				if err := backup.Snapshot(tc.cfg.ModsDir, out); err != nil {
					return err
				}
				fmt.Printf("%s Snapshot written to %s\n", green("✓"), bold(out))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("nothing to do: pass mod names or --snapshot")
			}

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

				path, err := backup.BackupMod(mod.FilePath, backup.DefaultDir(tc.cfg.ModsDir))
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), name, err)
					errs++
					continue
				}
				fmt.Printf("%s Backed up %s to %s\n", green("✓"), bold(name), dim(path))
			}

			if errs > 0 {
				return fmt.Errorf("failed to back up %d mod(s)", errs)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", `Write a full snapshot archive ("auto" picks a dated name)`)
	return cmd
}
