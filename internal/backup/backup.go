// Package backup copies mod archives aside before destructive operations
// and can snapshot the whole mods folder into a compressed tarball.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDir is where per-mod backups land, inside the mods folder itself.
func DefaultDir(modsDir string) string {
	return filepath.Join(modsDir, "backup")
}

// BackupMod copies one mod archive into backupDir under a timestamped name
// and returns the backup path. The original file is left untouched.
func BackupMod(src, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("creating backup folder: %w", err)
	}

	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, ".zip")
	stamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(backupDir, fmt.Sprintf("%s_%s.zip", stem, stamp))

	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// RestoreMod copies a backed-up archive into the mods folder, stripping the
// backup timestamp so the {name}_{version}.zip grammar is restored.
func RestoreMod(backupFile, modsDir string) (string, error) {
	if _, err := os.Stat(backupFile); err != nil {
		return "", fmt.Errorf("backup file: %w", err)
	}
	if err := os.MkdirAll(modsDir, 0755); err != nil {
		return "", fmt.Errorf("creating mods folder: %w", err)
	}

	dst := filepath.Join(modsDir, stripBackupStamp(filepath.Base(backupFile)))
	if err := copyFile(backupFile, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// stripBackupStamp removes a trailing _YYYYMMDD_HHMMSS suffix if present.
func stripBackupStamp(filename string) string {
	stem, ok := strings.CutSuffix(filename, ".zip")
	if !ok {
		return filename
	}

	parts := strings.Split(stem, "_")
	n := len(parts)
	if n >= 3 && len(parts[n-1]) == 6 && len(parts[n-2]) == 8 && isDigits(parts[n-1]) && isDigits(parts[n-2]) {
		return strings.Join(parts[:n-2], "_") + ".zip"
	}
	return filename
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
