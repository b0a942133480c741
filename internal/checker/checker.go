// Package checker keeps the local mods folder in sync with the portal:
// scanning, update detection, upgrading and uninstalling.
package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/modport/modport/internal/backup"
	"github.com/modport/modport/internal/domain"
	"github.com/modport/modport/internal/state"
)

const (
	refreshParallel = 4
	// portal data younger than this is served from memory/cache
	freshnessWindow = state.DefaultFreshness
)

// Checker owns the merged local+portal view of the mods folder.
type Checker struct {
	registry   domain.Registry
	scanner    domain.Scanner
	fetcher    domain.Fetcher
	cache      *state.Cache // nil disables persistence
	modsDir    string
	autoBackup bool
	log        domain.LogSink

	mu        sync.Mutex
	mods      map[string]*domain.Mod
	lastCheck time.Time
}

func New(registry domain.Registry, scanner domain.Scanner, fetcher domain.Fetcher, cache *state.Cache, modsDir string, autoBackup bool, log domain.LogSink) *Checker {
	if log == nil {
		log = func(msg string) { logrus.Info(msg) }
	}
	return &Checker{
		registry:   registry,
		scanner:    scanner,
		fetcher:    fetcher,
		cache:      cache,
		modsDir:    modsDir,
		autoBackup: autoBackup,
		log:        domain.SafeLogSink(log),
		mods:       make(map[string]*domain.Mod),
	}
}

// Mods returns the current in-memory view, keyed by name.
func (c *Checker) Mods() map[string]*domain.Mod {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]*domain.Mod, len(c.mods))
	for name, mod := range c.mods {
		out[name] = mod
	}
	return out
}

// Scan reads the mods folder and refreshes portal data for every installed
// mod, in parallel. Portal failures leave the mod with StatusUnknown.
func (c *Checker) Scan(ctx context.Context) (map[string]*domain.Mod, error) {
	c.log("Scanning mods folder...")

	local, err := c.scanner.Installed()
	if err != nil {
		return nil, err
	}
	c.log(fmt.Sprintf("Found %d mod files", len(local)))

	c.refresh(ctx, local)

	c.mu.Lock()
	c.mods = local
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return c.Mods(), nil
}

// refresh pulls the latest release info for each mod, through the metadata
// cache when it is fresh enough.
func (c *Checker) refresh(ctx context.Context, mods map[string]*domain.Mod) {
	g := &errgroup.Group{}
	g.SetLimit(refreshParallel)

	for name, mod := range mods {
		name, mod := name, mod
		g.Go(func() error {
			if c.cache != nil {
				if cached, ok, err := c.cache.Get(name, freshnessWindow); err == nil && ok {
					c.apply(mod, cached)
					return nil
				}
			}

			remote, err := c.registry.Mod(ctx, name)
			if err != nil {
				c.log(fmt.Sprintf("  ✗ Error checking %s: %v", name, err))
				mod.Status = domain.StatusUnknown
				return nil
			}

			c.apply(mod, remote)
			if c.cache != nil {
				if err := c.cache.Put(remote); err != nil {
					logrus.Debugf("caching %s: %v", name, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Checker) apply(mod, remote *domain.Mod) {
	mod.LatestVersion = remote.LatestVersion
	if remote.Downloads > 0 {
		mod.Downloads = remote.Downloads
	}
	if remote.Homepage != "" {
		mod.Homepage = remote.Homepage
	}
	mod.UpdateStatus()

	if mod.Status == domain.StatusOutdated {
		c.log(fmt.Sprintf("  ⬆ Update available: %s %s → %s", mod.Name, mod.Version, mod.LatestVersion))
	} else if mod.Status == domain.StatusUpToDate {
		c.log(fmt.Sprintf("  ✓ %s up to date (%s)", mod.Name, mod.Version))
	}
}

// CheckUpdates returns the outdated subset. Data younger than the freshness
// window is served without touching the portal unless forceRefresh is set.
// The boolean reports whether a portal refresh actually happened.
func (c *Checker) CheckUpdates(ctx context.Context, forceRefresh bool) (map[string]*domain.Mod, bool) {
	c.mu.Lock()
	fresh := !c.lastCheck.IsZero() && time.Since(c.lastCheck) < freshnessWindow
	mods := c.mods
	c.mu.Unlock()

	if len(mods) == 0 {
		c.log("No mods installed")
		return map[string]*domain.Mod{}, false
	}

	refreshed := false
	if !fresh || forceRefresh {
		c.log("Checking for updates (refreshing from portal)...")
		c.refresh(ctx, mods)
		refreshed = true

		c.mu.Lock()
		c.lastCheck = time.Now()
		c.mu.Unlock()
	} else {
		c.log("Update check (using cached data)...")
	}

	outdated := make(map[string]*domain.Mod)
	for name, mod := range mods {
		if mod.Status == domain.StatusOutdated {
			outdated[name] = mod
		}
	}
	c.log(fmt.Sprintf("Updates available: %d", len(outdated)))

	return outdated, refreshed
}

// UpdateMod upgrades one mod to its latest known version: backup the old
// archive, force-fetch the new one, then drop the old file.
func (c *Checker) UpdateMod(ctx context.Context, name string) bool {
	c.mu.Lock()
	mod, ok := c.mods[name]
	c.mu.Unlock()

	if !ok {
		c.log(fmt.Sprintf("  ✗ %s - not installed", name))
		return false
	}
	if mod.LatestVersion == "" || mod.Version == mod.LatestVersion {
		c.log(fmt.Sprintf("  ℹ %s %s - already up to date", name, mod.Version))
		return false
	}

	if c.autoBackup && mod.FilePath != "" {
		if backupPath, err := backup.BackupMod(mod.FilePath, backup.DefaultDir(c.modsDir)); err != nil {
			c.log(fmt.Sprintf("  ⚠ Warning backing up %s: %v", name, err))
		} else {
			c.log(fmt.Sprintf("  ↻ Backed up %s %s to %s", name, mod.Version, backupPath))
		}
	}

	c.log(fmt.Sprintf("  ⬇ Downloading %s %s → %s...", name, mod.Version, mod.LatestVersion))

	oldPath := mod.FilePath
	oldVersion := mod.Version
	mod.Version = mod.LatestVersion

	if !c.fetcher.Fetch(ctx, mod, true) {
		mod.Version = oldVersion
		c.log(fmt.Sprintf("  ✗ Failed to download %s", name))
		return false
	}

	if oldPath != "" && oldVersion != mod.Version {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			c.log(fmt.Sprintf("  ⚠ Warning removing old %s: %v", name, err))
		}
	}

	mod.FilePath = filepath.Join(c.modsDir, domain.ModFilename(mod.Name, mod.Version))
	mod.Status = domain.StatusUpToDate
	c.log(fmt.Sprintf("  ✓ Updated %s to %s", name, mod.Version))

	return true
}

// UpdateMods upgrades the named mods, or every outdated mod when names is
// empty. Items are updated one after another; a failure never stops the run.
func (c *Checker) UpdateMods(ctx context.Context, names []string) (successful, failed []string) {
	if len(names) == 0 {
		c.mu.Lock()
		for name, mod := range c.mods {
			if mod.Status == domain.StatusOutdated {
				names = append(names, name)
			}
		}
		c.mu.Unlock()
	}

	c.log(fmt.Sprintf("Updating %d mod(s)...", len(names)))
	for _, name := range names {
		if c.UpdateMod(ctx, name) {
			successful = append(successful, name)
		} else {
			failed = append(failed, name)
		}
	}
	c.log(fmt.Sprintf("✓ %d successful, ✗ %d failed", len(successful), len(failed)))

	return successful, failed
}

// Uninstall removes a mod's archive and forgets it.
func (c *Checker) Uninstall(name string) error {
	c.mu.Lock()
	mod, ok := c.mods[name]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s is not installed", name)
	}
	if mod.FilePath == "" {
		return fmt.Errorf("%s has no local file", name)
	}

	if err := os.Remove(mod.FilePath); err != nil {
		return fmt.Errorf("removing %s: %w", mod.FilePath, err)
	}

	c.mu.Lock()
	delete(c.mods, name)
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Forget(name); err != nil {
			logrus.Debugf("forgetting %s: %v", name, err)
		}
	}

	c.log(fmt.Sprintf("✓ Uninstalled %s@%s", name, mod.Version))
	return nil
}

// Statistics counts mods per status.
func (c *Checker) Statistics() map[domain.Status]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := map[domain.Status]int{
		domain.StatusUpToDate: 0,
		domain.StatusOutdated: 0,
		domain.StatusUnknown:  0,
		domain.StatusError:    0,
	}
	for _, mod := range c.mods {
		stats[mod.Status]++
	}
	return stats
}
