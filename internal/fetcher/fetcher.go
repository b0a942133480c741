// Package fetcher downloads mod archives from the community mirror and
// verifies them before they are allowed to stay on disk.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"

	"github.com/modport/modport/internal/domain"
)

const (
	// DefaultMirrorURL serves {name}/{version}.zip without portal auth.
	DefaultMirrorURL = "https://mods-storage.re146.dev"

	fetchTimeout = 60 * time.Second
	chunkSize    = 8192
	// log a progress line every this many chunks
	progressEvery = 100
)

// Fetcher streams mod archives into the mods folder. Every failure collapses
// to a false return; the cause is only visible through the log sink, and the
// filesystem is always left as it was before the call.
type Fetcher struct {
	client    *http.Client
	modsDir   string
	mirrorURL string
	username  string
	token     string
	log       domain.LogSink
}

func New(modsDir, mirrorURL, username, token string, log domain.LogSink) *Fetcher {
	if mirrorURL == "" {
		mirrorURL = DefaultMirrorURL
	}
	if log == nil {
		log = func(msg string) { logrus.Info(msg) }
	}
	// The timeout bounds connecting and waiting for headers only. The body
	// streams with no deadline; a big archive on a slow link is still a
	// valid download.
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: fetchTimeout}).DialContext,
		TLSHandshakeTimeout:   fetchTimeout,
		ResponseHeaderTimeout: fetchTimeout,
	}
	return &Fetcher{
		client:    &http.Client{Transport: transport},
		modsDir:   modsDir,
		mirrorURL: mirrorURL,
		username:  username,
		token:     token,
		log:       domain.SafeLogSink(log),
	}
}

// Fetch downloads one mod version. It is an idempotent no-op when the target
// file already exists, unless force is set.
func (f *Fetcher) Fetch(ctx context.Context, mod *domain.Mod, force bool) bool {
	dst := filepath.Join(f.modsDir, domain.ModFilename(mod.Name, mod.Version))

	if _, err := os.Stat(dst); err == nil && !force {
		f.log(fmt.Sprintf("✓ %s@%s already installed", mod.Name, mod.Version))
		return true
	}

	f.noteStaleVersions(mod)

	f.log(fmt.Sprintf("⬇ Downloading %s@%s...", mod.Name, mod.Version))
	if !f.download(ctx, mod, dst) {
		return false
	}

	f.log(fmt.Sprintf("✓ Downloaded %s@%s", mod.Name, mod.Version))
	return true
}

// noteStaleVersions logs when an older archive of the same mod is present.
// Informational only; the stale file is left for the checker to clean up.
func (f *Fetcher) noteStaleVersions(mod *domain.Mod) {
	matches, err := filepath.Glob(filepath.Join(f.modsDir, mod.Name+"_*.zip"))
	if err != nil {
		return
	}
	for _, match := range matches {
		name, version, ok := domain.ParseModFilename(filepath.Base(match))
		if ok && name == mod.Name && version != mod.Version {
			f.log(fmt.Sprintf("⚠ %s: found version %s, upgrading to %s", mod.Name, version, mod.Version))
			return
		}
	}
}

func (f *Fetcher) download(ctx context.Context, mod *domain.Mod, dst string) bool {
	url := fmt.Sprintf("%s/%s/%s.zip", f.mirrorURL, mod.Name, mod.Version)
	f.log(fmt.Sprintf("  Downloading from mirror: %s", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.log(fmt.Sprintf("  ✗ Download error: %v", err))
		return false
	}
	if f.username != "" && f.token != "" {
		req.SetBasicAuth(f.username, f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log(fmt.Sprintf("  ✗ Download error: %v", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		f.log("  ✗ Mod not found on mirror (404)")
		return false
	}
	if resp.StatusCode != http.StatusOK {
		f.log(fmt.Sprintf("  ✗ Download failed with status %d", resp.StatusCode))
		return false
	}

	if resp.ContentLength > 0 {
		f.log(fmt.Sprintf("  Downloading %s...", domain.FormatFileSize(resp.ContentLength)))
	}

	written, err := f.stream(resp.Body, dst, resp.ContentLength)
	if err != nil {
		f.log(fmt.Sprintf("  ✗ Download error: %v", err))
		os.Remove(dst)
		return false
	}
	f.log(fmt.Sprintf("  ✓ Downloaded %s", domain.FormatFileSize(written)))

	if err := validateZip(dst); err != nil {
		f.log(fmt.Sprintf("  ✗ Invalid zip file: %v", err))
		os.Remove(dst)
		return false
	}
	f.log("  ✓ Zip file is valid")

	return true
}

// stream copies the response body to dst in fixed-size chunks, logging a
// percentage line periodically when the server declared a content length.
func (f *Fetcher) stream(body io.Reader, dst string, total int64) (int64, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	buf := make([]byte, chunkSize)
	var written int64
	var chunks int

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			chunks++

			if total > 0 && chunks%progressEvery == 0 {
				f.log(fmt.Sprintf("    Progress: %.1f%%", float64(written)/float64(total)*100))
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// validateZip checks the CRC of every entry. A corrupt partial download must
// never be left in place looking like a valid mod.
func validateZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, entry := range r.File {
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name, err)
		}
	}
	return nil
}
