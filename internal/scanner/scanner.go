// Package scanner discovers mods already present in the local mods folder.
package scanner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"

	"github.com/modport/modport/internal/domain"
)

// Scanner reads the mods folder. Mods are zip archives following the
// {name}_{version}.zip grammar; richer metadata comes from the info.json
// entry inside each archive.
type Scanner struct {
	modsDir string
}

func New(modsDir string) *Scanner {
	return &Scanner{modsDir: modsDir}
}

// info.json as shipped inside a mod archive
type modInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Installed scans the mods folder and returns one record per mod, keyed by
// name. A missing folder is an empty result, not an error; a single
// unreadable archive is logged and skipped.
func (s *Scanner) Installed() (map[string]*domain.Mod, error) {
	installed := make(map[string]*domain.Mod)

	entries, err := os.ReadDir(s.modsDir)
	if os.IsNotExist(err) {
		return installed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mods folder: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}

		name, version, ok := domain.ParseModFilename(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(s.modsDir, entry.Name())
		mod := &domain.Mod{
			Name:     name,
			Title:    name,
			Author:   "Unknown",
			Version:  version,
			FilePath: path,
			Status:   domain.StatusUnknown,
		}

		if fi, err := entry.Info(); err == nil {
			mod.FileSize = fi.Size()
			mod.ReleaseDate = fi.ModTime()
		}

		if info, err := readModInfo(path); err != nil {
			logrus.Debugf("scan %s: %v", entry.Name(), err)
		} else {
			if info.Title != "" {
				mod.Title = info.Title
			}
			if info.Author != "" {
				mod.Author = info.Author
			}
			mod.Description = info.Description
		}

		installed[name] = mod
	}

	return installed, nil
}

// readModInfo pulls the info.json entry out of a mod archive. The entry can
// sit anywhere in the tree; the first match wins.
func readModInfo(path string) (*modInfo, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, entry := range r.File {
		if !strings.HasSuffix(entry.Name, "info.json") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		var info modInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decoding info.json: %w", err)
		}
		return &info, nil
	}

	return nil, fmt.Errorf("no info.json entry in %s", filepath.Base(path))
}
