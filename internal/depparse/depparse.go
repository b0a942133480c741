// Package depparse parses the free-text dependency declarations found in a
// mod's info.json, e.g. "some-mod >= 1.2.0", "? helper-mod" or "! rival-mod".
// Version constraints are not evaluated; only the mod name and the relation
// kind are extracted.
package depparse

import (
	"strings"

	"github.com/modport/modport/internal/domain"
)

// constraint operators that may follow a name with no separating space
const constraintDelims = ">=<!"

// Parse classifies a single dependency declaration. The returned name is
// empty when the declaration should be discarded: blank input, the base game,
// or text so malformed no name survives extraction. Parse never fails;
// portal data is free text and a bad line must not abort resolution.
func Parse(decl string) (name string, kind domain.DepKind) {
	decl = strings.TrimSpace(decl)

	if decl == "" || decl == "base" || strings.HasPrefix(decl, "base ") {
		return "", domain.DepRequired
	}

	kind = domain.DepRequired
	switch {
	case strings.HasPrefix(decl, "!"):
		kind = domain.DepIncompatible
		decl = strings.TrimSpace(decl[1:])
	case strings.HasPrefix(decl, "(?)"):
		kind = domain.DepOptional
		decl = strings.TrimSpace(decl[3:])
	case strings.HasPrefix(decl, "?"):
		kind = domain.DepOptional
		decl = strings.TrimSpace(decl[1:])
	}

	name = extractName(decl)
	if name == "" || name == "base" {
		return "", domain.DepRequired
	}

	// Expansions are surfaced as their own kind no matter how they were
	// declared; they can never be fetched.
	if domain.Expansions[name] {
		return name, domain.DepExpansion
	}

	return name, kind
}

// extractName cuts the declaration down to the bare mod name: everything
// before the first whitespace, or before the first constraint operator when
// the version constraint is glued on without a space.
func extractName(decl string) string {
	if idx := strings.IndexAny(decl, " \t"); idx >= 0 {
		return strings.TrimSpace(decl[:idx])
	}
	if idx := strings.IndexAny(decl, constraintDelims); idx >= 0 {
		return strings.TrimSpace(decl[:idx])
	}
	return decl
}
