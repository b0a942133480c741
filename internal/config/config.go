// Package config loads and saves the modport configuration file. The core
// packages never read it directly; values are threaded through constructors.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ModsDir          string `toml:"mods_dir"`
	Username         string `toml:"username"`
	Token            string `toml:"token"`
	PortalURL        string `toml:"portal_url"`
	MirrorURL        string `toml:"mirror_url"`
	MaxParallel      int    `toml:"max_parallel"`
	DownloadOptional bool   `toml:"download_optional"`
	AutoBackup       bool   `toml:"auto_backup"`
	StateDB          string `toml:"state_db"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".modport"), nil
}

func Default() *Config {
	cfg := &Config{
		MaxParallel: 4,
		AutoBackup:  true,
	}

	if dir, err := configDir(); err == nil {
		cfg.StateDB = filepath.Join(dir, "metadata.db")
	}
	cfg.ModsDir = detectModsDir()

	return cfg
}

// Load reads ~/.modport/config.toml over the defaults. A missing file is
// not an error; first run works out of the box.
func Load() (*Config, error) {
	cfg := Default()

	dir, err := configDir()
	if err != nil {
		return cfg, nil
	}

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.ModsDir == "" {
		cfg.ModsDir = detectModsDir()
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "config.toml"))
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// detectModsDir looks for the game's mods folder in its per-OS default
// location. Empty when nothing is found; the user then has to configure it.
func detectModsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	var path string
	switch runtime.GOOS {
	case "windows":
		path = filepath.Join(home, "AppData", "Roaming", "Factorio", "mods")
	case "darwin":
		path = filepath.Join(home, "Library", "Application Support", "factorio", "mods")
	case "linux":
		path = filepath.Join(home, ".factorio", "mods")
	default:
		return ""
	}

	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
