package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions compares dotted-numeric version strings component-wise.
// Missing trailing components count as 0, so "1.2" equals "1.2.0". Any
// non-numeric component makes the whole comparison report equal; portal
// version strings are not guaranteed clean and must never abort a caller.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		av, err := versionPart(as, i)
		if err != nil {
			return 0
		}
		bv, err := versionPart(bs, i)
		if err != nil {
			return 0
		}

		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) (int, error) {
	if i >= len(parts) {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(parts[i]))
}

// ModFilename builds the canonical archive name for a mod version. The
// {name}_{version}.zip grammar is shared with the game itself; both the
// scanner and the fetcher rely on it.
func ModFilename(name, version string) string {
	return fmt.Sprintf("%s_%s.zip", name, version)
}

// ParseModFilename splits a mods-folder filename back into name and version.
// A file without an underscore is treated as version 0.0.0.
func ParseModFilename(filename string) (name, version string, ok bool) {
	stem, found := strings.CutSuffix(filename, ".zip")
	if !found || stem == "" {
		return "", "", false
	}

	idx := strings.LastIndex(stem, "_")
	if idx <= 0 || idx == len(stem)-1 {
		return stem, "0.0.0", true
	}
	return stem[:idx], stem[idx+1:], true
}

// FormatFileSize renders a byte count as a human-readable size.
func FormatFileSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.2f TB", value)
}
