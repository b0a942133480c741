package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModArchive(t *testing.T, dir, filename, infoJSON string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if infoJSON != "" {
		w, err := zw.Create("mod/info.json")
		require.NoError(t, err)
		_, err = w.Write([]byte(infoJSON))
		require.NoError(t, err)
	} else {
		w, err := zw.Create("mod/control.lua")
		require.NoError(t, err)
		_, err = w.Write([]byte("-- nothing"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), buf.Bytes(), 0644))
}

func TestInstalledMissingFolder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	installed, err := s.Installed()
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestInstalledScansArchives(t *testing.T) {
	dir := t.TempDir()
	writeModArchive(t, dir, "some-mod_1.2.3.zip",
		`{"name": "some-mod", "title": "Some Mod", "author": "someone", "description": "Does things."}`)
	writeModArchive(t, dir, "bare_0.1.0.zip", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "backup"), 0755))

	s := New(dir)
	installed, err := s.Installed()
	require.NoError(t, err)
	require.Len(t, installed, 2)

	mod := installed["some-mod"]
	require.NotNil(t, mod)
	assert.Equal(t, "1.2.3", mod.Version)
	assert.Equal(t, "Some Mod", mod.Title)
	assert.Equal(t, "someone", mod.Author)
	assert.Equal(t, "Does things.", mod.Description)
	assert.Equal(t, filepath.Join(dir, "some-mod_1.2.3.zip"), mod.FilePath)
	assert.Positive(t, mod.FileSize)

	// no info.json: filename data still wins over nothing
	bare := installed["bare"]
	require.NotNil(t, bare)
	assert.Equal(t, "bare", bare.Title)
	assert.Equal(t, "Unknown", bare.Author)
	assert.Equal(t, "0.1.0", bare.Version)
}

func TestInstalledSkipsUnreadableArchive(t *testing.T) {
	dir := t.TempDir()
	writeModArchive(t, dir, "good_1.0.0.zip", `{"name": "good"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_1.0.0.zip"), []byte("not a zip"), 0644))

	s := New(dir)
	installed, err := s.Installed()
	require.NoError(t, err)

	// a broken archive still shows up with filename-derived fields
	assert.Contains(t, installed, "good")
	assert.Contains(t, installed, "broken")
	assert.Equal(t, "Unknown", installed["broken"].Author)
}
