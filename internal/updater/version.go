package updater

import (
	"strconv"
	"strings"
)

// CompareVersions reports whether latest is strictly newer than current.
//
// Versions are dotted numeric strings with an optional leading "v" or "V"
// (e.g. "1.0.0", "v1.2"). The shorter version is right-padded with zeros,
// so "1.2" and "1.2.0" compare equal. Any non-numeric component makes the
// comparison fail closed and return false.
func CompareVersions(current, latest string) bool {
	currentParts, ok := splitVersion(current)
	if !ok {
		return false
	}
	latestParts, ok := splitVersion(latest)
	if !ok {
		return false
	}

	if len(currentParts) < len(latestParts) {
		currentParts = padZeros(currentParts, len(latestParts))
	} else if len(latestParts) < len(currentParts) {
		latestParts = padZeros(latestParts, len(currentParts))
	}

	for i := range currentParts {
		if latestParts[i] > currentParts[i] {
			return true
		}
		if latestParts[i] < currentParts[i] {
			return false
		}
	}
	return false
}

// splitVersion parses "v1.2.3" into its numeric components.
func splitVersion(s string) ([]uint64, bool) {
	s = strings.TrimLeft(s, "vV")

	fields := strings.Split(s, ".")
	parts := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, false
		}
		parts = append(parts, n)
	}
	return parts, true
}

func padZeros(parts []uint64, length int) []uint64 {
	padded := make([]uint64, length)
	copy(padded, parts)
	return padded
}

// normalizeVersion strips the leading "v"/"V" prefix from a release tag.
func normalizeVersion(tag string) string {
	return strings.TrimLeft(tag, "vV")
}
