package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	var optional bool

	cmd := &cobra.Command{
		Use:   "download <name>...",
		Short: "Download mods with their dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := newToolchain()
			if err != nil {
				return err
			}
			defer tc.Close()

			includeOptional := optional || tc.cfg.DownloadOptional

			tc.downloader.SetModProgressSink(func(name, status string, pct int) {
				fmt.Printf("%s %s\n", bold(name), dim(status))
			})
			tc.downloader.SetOverallProgressSink(func(completed, total int) {
				fmt.Printf("%s\n", dim(fmt.Sprintf("[%d/%d]", completed, total)))
			})

			downloaded, failed := tc.downloader.DownloadAll(cmd.Context(), args, includeOptional)

			fmt.Println()
			for _, mod := range downloaded {
				fmt.Printf("%s %s%s%s\n", green("✓"), bold(mod.Name), bold("@"), bold(mod.Version))
			}
			for _, name := range failed {
				fmt.Printf("%s %s\n", red("✗"), name)
			}

			if len(failed) > 0 {
				return fmt.Errorf("failed to download %d mod(s)", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&optional, "optional", false, "Also download optional dependencies")
	return cmd
}
