package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modport/modport/internal/domain"
)

func zipBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("some-mod/info.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"name": "some-mod", "version": "1.0.0"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newMirror(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDownloadsAndValidates(t *testing.T) {
	payload := zipBytes(t)
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/some-mod/1.0.0.zip", r.URL.Path)
		w.Write(payload)
	})

	dir := t.TempDir()
	f := New(dir, srv.URL, "", "", func(string) {})

	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(dir, "some-mod_1.0.0.zip"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestNewDoesNotCapBodyStreamingTime(t *testing.T) {
	f := New(t.TempDir(), "", "", "", func(string) {})

	assert.Zero(t, f.client.Timeout, "a whole-request deadline would kill slow but valid downloads")
	transport, ok := f.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, fetchTimeout, transport.ResponseHeaderTimeout)
	assert.Equal(t, fetchTimeout, transport.TLSHandshakeTimeout)
}

func TestFetchPanickingLogSinkDoesNotAbort(t *testing.T) {
	payload := zipBytes(t)
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	dir := t.TempDir()
	f := New(dir, srv.URL, "", "", func(string) { panic("ui bug in log sink") })

	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, "some-mod_1.0.0.zip"))
}

func TestFetchIdempotentSkip(t *testing.T) {
	var hits int
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(zipBytes(t))
	})

	dir := t.TempDir()
	existing := filepath.Join(dir, "some-mod_1.0.0.zip")
	require.NoError(t, os.WriteFile(existing, []byte("pre-existing"), 0644))

	f := New(dir, srv.URL, "", "", func(string) {})
	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)

	assert.True(t, ok)
	assert.Zero(t, hits, "existing file must not be re-downloaded without force")

	// force replaces the file even though it exists
	ok = f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, true)
	assert.True(t, ok)
	assert.Equal(t, 1, hits)
}

func TestFetchRejectsCorruptArchive(t *testing.T) {
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a zip archive")
	})

	dir := t.TempDir()
	f := New(dir, srv.URL, "", "", func(string) {})

	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "some-mod_1.0.0.zip"))
}

func TestFetchRejectsTruncatedArchive(t *testing.T) {
	payload := zipBytes(t)
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload[:len(payload)/2])
	})

	dir := t.TempDir()
	f := New(dir, srv.URL, "", "", func(string) {})

	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "some-mod_1.0.0.zip"))
}

func TestFetchMirrorStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})

			dir := t.TempDir()
			f := New(dir, srv.URL, "", "", func(string) {})

			ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
			assert.False(t, ok)
			assert.NoFileExists(t, filepath.Join(dir, "some-mod_1.0.0.zip"))
		})
	}
}

func TestFetchLogsUpgradeNotice(t *testing.T) {
	srv := newMirror(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBytes(t))
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "some-mod_0.9.0.zip"), []byte("old"), 0644))

	var logged []string
	f := New(dir, srv.URL, "", "", func(msg string) { logged = append(logged, msg) })

	ok := f.Fetch(context.Background(), &domain.Mod{Name: "some-mod", Version: "1.0.0"}, false)
	assert.True(t, ok)

	var sawNotice bool
	for _, msg := range logged {
		if msg == "⚠ some-mod: found version 0.9.0, upgrading to 1.0.0" {
			sawNotice = true
		}
	}
	assert.True(t, sawNotice, "expected an upgrade notice, got %v", logged)
}
