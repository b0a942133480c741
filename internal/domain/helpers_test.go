package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "equal", a: "1.2.0", b: "1.2.0", want: 0},
		{name: "missing trailing component is zero", a: "1.2.0", b: "1.2", want: 0},
		{name: "numeric not lexicographic", a: "1.9.0", b: "1.10.0", want: -1},
		{name: "major beats minor", a: "2.0", b: "1.9.9", want: 1},
		{name: "longer tail wins", a: "1.2", b: "1.2.1", want: -1},
		{name: "non-numeric reports equal", a: "1.2.beta", b: "1.2.0", want: 0},
		{name: "empty reports equal", a: "", b: "1.0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestModUpdateStatus(t *testing.T) {
	m := &Mod{Name: "example", Version: "1.0.0"}
	m.UpdateStatus()
	assert.Equal(t, StatusUnknown, m.Status)

	m.LatestVersion = "1.1.0"
	m.UpdateStatus()
	assert.Equal(t, StatusOutdated, m.Status)
	assert.True(t, m.NeedsUpdate())

	m.Version = "1.1.0"
	m.UpdateStatus()
	assert.Equal(t, StatusUpToDate, m.Status)
	assert.False(t, m.NeedsUpdate())
}

func TestParseModFilename(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		version  string
		ok       bool
	}{
		{"some-mod_1.2.3.zip", "some-mod", "1.2.3", true},
		{"with_many_parts_0.1.0.zip", "with_many_parts", "0.1.0", true},
		{"noversion.zip", "noversion", "0.0.0", true},
		{"not-a-zip.tar.gz", "", "", false},
		{".zip", "", "", false},
	}

	for _, tt := range tests {
		name, version, ok := ParseModFilename(tt.filename)
		assert.Equal(t, tt.ok, ok, tt.filename)
		if tt.ok {
			assert.Equal(t, tt.name, name, tt.filename)
			assert.Equal(t, tt.version, version, tt.filename)
		}
	}
}

func TestModFilenameRoundtrip(t *testing.T) {
	name, version, ok := ParseModFilename(ModFilename("krastorio2", "1.3.25"))
	assert.True(t, ok)
	assert.Equal(t, "krastorio2", name)
	assert.Equal(t, "1.3.25", version)
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512.00 B", FormatFileSize(512))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "2.00 MB", FormatFileSize(2*1024*1024))
}
