package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/modport/modport/internal/checker"
	"github.com/modport/modport/internal/config"
	"github.com/modport/modport/internal/downloader"
	"github.com/modport/modport/internal/fetcher"
	"github.com/modport/modport/internal/portal"
	"github.com/modport/modport/internal/resolver"
	"github.com/modport/modport/internal/scanner"
	"github.com/modport/modport/internal/state"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "modport",
		Short: "Download and manage Factorio mods with dependency resolution",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newDownloadCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newUpdateCmd(),
		newListCmd(),
		newRemoveCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newVersionCmd(),
	)
	return rootCmd.Execute()
}

// toolchain bundles the wired-up core for one command invocation. All
// configuration is threaded through constructors here; nothing reads the
// config file after this point.
type toolchain struct {
	cfg        *config.Config
	portal     *portal.Client
	scanner    *scanner.Scanner
	fetcher    *fetcher.Fetcher
	resolver   *resolver.Resolver
	downloader *downloader.Downloader
	checker    *checker.Checker
	cache      *state.Cache
}

func (t *toolchain) Close() {
	if t.cache != nil {
		t.cache.Close()
	}
}

func newToolchain() (*toolchain, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.ModsDir == "" {
		return nil, fmt.Errorf("mods folder not found; set mods_dir in ~/.modport/config.toml")
	}

	log := func(msg string) { logrus.Info(msg) }

	client := portal.New(cfg.PortalURL, cfg.Username, cfg.Token)
	scan := scanner.New(cfg.ModsDir)
	fetch := fetcher.New(cfg.ModsDir, cfg.MirrorURL, cfg.Username, cfg.Token, log)
	res := resolver.New(client, log)
	dl := downloader.New(res, fetch, scan, cfg.MaxParallel, log)

	var cache *state.Cache
	if cfg.StateDB != "" {
		cache, err = state.Open(cfg.StateDB)
		if err != nil {
			logrus.Warnf("metadata cache unavailable: %v", err)
			cache = nil
		}
	}

	check := checker.New(client, scan, fetch, cache, cfg.ModsDir, cfg.AutoBackup, log)

	return &toolchain{
		cfg:        cfg,
		portal:     client,
		scanner:    scan,
		fetcher:    fetch,
		resolver:   res,
		downloader: dl,
		checker:    check,
		cache:      cache,
	}, nil
}
