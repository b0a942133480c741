package portal

import (
	"encoding/json"
	"time"
)

// Metadata is the decoded response of the /full mod endpoint. It is the only
// place portal JSON is decoded; everything downstream works on typed fields.
type Metadata struct {
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Description    string    `json:"description"`
	Homepage       string    `json:"homepage"`
	DownloadsCount int       `json:"downloads_count"`
	Releases       []Release `json:"releases"`

	// Raw is the undecoded response body, kept for later display.
	Raw json.RawMessage `json:"-"`
}

// Release is one historical release of a mod.
type Release struct {
	Version         string    `json:"version"`
	ReleasedAt      time.Time `json:"released_at"`
	FactorioVersion string    `json:"factorio_version"`
	Filename        string    `json:"filename"`
	InfoJSON        InfoJSON  `json:"info_json"`
}

// InfoJSON carries the subset of a release's info.json the portal exposes.
type InfoJSON struct {
	Dependencies []string `json:"dependencies"`
}

// LatestRelease returns the newest release, or false when the mod has none.
// The portal returns releases in ascending order and this trusts that
// ordering rather than re-sorting by version.
func (m *Metadata) LatestRelease() (*Release, bool) {
	if len(m.Releases) == 0 {
		return nil, false
	}
	return &m.Releases[len(m.Releases)-1], true
}

type searchResponse struct {
	Results []struct {
		Name           string `json:"name"`
		Title          string `json:"title"`
		Owner          string `json:"owner"`
		Summary        string `json:"summary"`
		DownloadsCount int    `json:"downloads_count"`
	} `json:"results"`
}
