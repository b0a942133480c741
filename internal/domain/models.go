package domain

import (
	"encoding/json"
	"time"
)

// Status describes how an installed mod relates to the newest portal release.
type Status string

const (
	StatusUpToDate Status = "up_to_date"
	StatusOutdated Status = "outdated"
	StatusUnknown  Status = "unknown"
	StatusError    Status = "error"
)

// DepKind classifies one parsed dependency declaration.
type DepKind int

const (
	DepRequired DepKind = iota
	DepOptional
	DepIncompatible
	// DepExpansion marks paid DLC that can be declared as a dependency but
	// never downloaded from the portal or a mirror.
	DepExpansion
)

func (k DepKind) String() string {
	switch k {
	case DepRequired:
		return "required"
	case DepOptional:
		return "optional"
	case DepIncompatible:
		return "incompatible"
	case DepExpansion:
		return "expansion"
	}
	return "unknown"
}

// Expansions lists paid DLC identifiers. These can appear in dependency
// declarations but must be bought and installed through the game itself.
var Expansions = map[string]bool{
	"space-age":      true,
	"elevated-rails": true,
}

// Mod is the in-memory record for one mod, merged from the local mods folder
// and the portal. Name is the identity; everything else may be refreshed.
type Mod struct {
	Name        string
	Title       string
	Author      string
	Description string
	Homepage    string

	Version         string // installed (or to-be-installed) version
	LatestVersion   string // newest portal release, empty before a lookup
	FactorioVersion string

	Dependencies             []string
	OptionalDependencies     []string
	IncompatibleDependencies []string
	ExpansionDependencies    []string

	FilePath    string // local zip, empty for portal-only records
	FileSize    int64
	Downloads   int
	ReleaseDate time.Time

	Status Status

	// Raw keeps the undecoded portal response for later display
	// (changelogs and the like) without another round-trip.
	Raw json.RawMessage
}

// NeedsUpdate reports whether a newer release than the installed version is
// known. False when no portal lookup has happened yet.
func (m *Mod) NeedsUpdate() bool {
	if m.LatestVersion == "" || m.Version == "" {
		return false
	}
	return CompareVersions(m.Version, m.LatestVersion) < 0
}

// UpdateStatus recomputes Status from the installed/latest version pair.
func (m *Mod) UpdateStatus() {
	if m.LatestVersion == "" {
		m.Status = StatusUnknown
		return
	}
	if m.NeedsUpdate() {
		m.Status = StatusOutdated
	} else {
		m.Status = StatusUpToDate
	}
}

// PortalURL returns the mod's page on the portal website.
func (m *Mod) PortalURL() string {
	return "https://mods.factorio.com/mod/" + m.Name
}

// SearchResult is one hit from a portal search.
type SearchResult struct {
	Name      string
	Title     string
	Owner     string
	Summary   string
	Downloads int
}
