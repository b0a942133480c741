// Package state persists portal lookup results between runs so the checker
// can skip round-trips while the data is still fresh.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/modport/modport/internal/domain"
)

// DefaultFreshness matches the update checker's refresh window.
const DefaultFreshness = 10 * time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS mod_metadata (
    name           TEXT PRIMARY KEY,
    title          TEXT NOT NULL DEFAULT '',
    author         TEXT NOT NULL DEFAULT '',
    latest_version TEXT NOT NULL DEFAULT '',
    homepage       TEXT NOT NULL DEFAULT '',
    downloads      INTEGER NOT NULL DEFAULT 0,
    checked_at     TEXT NOT NULL
);
`

// Cache is a SQLite-backed store of the portal facts the checker needs
// (latest version, download count). It is not a mod database; the mods
// folder itself stays the source of truth for what is installed.
type Cache struct {
	mu sync.RWMutex
	db *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Put records the portal facts for one mod, stamped now.
func (c *Cache) Put(mod *domain.Mod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO mod_metadata
		(name, title, author, latest_version, homepage, downloads, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mod.Name, mod.Title, mod.Author, mod.LatestVersion, mod.Homepage,
		mod.Downloads, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Get returns the cached record for name when it is younger than maxAge.
// The boolean is false for both a miss and a stale hit.
func (c *Cache) Get(name string, maxAge time.Duration) (*domain.Mod, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var mod domain.Mod
	var checkedAt string
	err := c.db.QueryRow(`
		SELECT name, title, author, latest_version, homepage, downloads, checked_at
		FROM mod_metadata WHERE name = ?`, name).Scan(
		&mod.Name, &mod.Title, &mod.Author, &mod.LatestVersion,
		&mod.Homepage, &mod.Downloads, &checkedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	stamp, err := time.Parse(time.RFC3339, checkedAt)
	if err != nil || time.Since(stamp) > maxAge {
		return nil, false, nil
	}

	return &mod, true, nil
}

// Forget drops one mod's cached record, e.g. after an uninstall.
func (c *Cache) Forget(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec("DELETE FROM mod_metadata WHERE name = ?", name)
	return err
}

// Clear empties the whole cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec("DELETE FROM mod_metadata")
	return err
}
