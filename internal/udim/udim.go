// Package udim rewrites literal tile-coordinate texture paths into the
// host's wildcard patterns.
package udim

import (
	"path"
	"regexp"
	"strings"

	"github.com/shadercreator/backend/internal/models"
)

// Placeholders written in place of the matched tile token.
const (
	PlaceholderMari   = "<UDIM>"
	PlaceholderZBrush = "u<u>_v<v>"
	PlaceholderMudbox = "u<U>_v<V>"
)

// One alternation, one pass. The token must fill a whole dot-delimited
// segment followed by more of the name; the greedy prefix picks the last such
// segment. Group 1 is a Mari tile, group 2 the ZBrush token, group 3 the
// Mudbox token.
var reTile = regexp.MustCompile(`^(?:.*\.)?(?:([0-9]{4})|(u0_v0)|(u1_v1))\.`)

// Normalize replaces the tile segment in the file's base name with its
// wildcard placeholder. Digits elsewhere in the name are left alone. Paths
// without a tile segment are returned unchanged with TilingNone.
// Normalize(Normalize(p)) == Normalize(p).
func Normalize(filePath string) (string, models.TilingMode) {
	dir, base := splitBase(filePath)

	loc := reTile.FindStringSubmatchIndex(base)
	if loc == nil {
		return filePath, models.TilingNone
	}

	var (
		start, end  int
		placeholder string
		mode        models.TilingMode
	)
	switch {
	case loc[2] >= 0:
		start, end = loc[2], loc[3]
		placeholder, mode = PlaceholderMari, models.TilingMari
	case loc[4] >= 0:
		start, end = loc[4], loc[5]
		placeholder, mode = PlaceholderZBrush, models.TilingZBrush
	default:
		start, end = loc[6], loc[7]
		placeholder, mode = PlaceholderMudbox, models.TilingMudbox
	}

	return dir + base[:start] + placeholder + base[end:], mode
}

// Describe wraps Normalize in a descriptor.
func Describe(filePath string) models.UDIMDescriptor {
	pattern, mode := Normalize(filePath)
	return models.UDIMDescriptor{
		BasePattern: pattern,
		TilingMode:  mode,
		Mode:        mode.String(),
	}
}

// IsPattern reports whether p already carries a wildcard placeholder.
func IsPattern(p string) bool {
	_, base := splitBase(p)
	return strings.Contains(base, PlaceholderMari) ||
		strings.Contains(base, PlaceholderZBrush) ||
		strings.Contains(base, PlaceholderMudbox)
}

// splitBase keeps the separator on dir so reassembly is lossless for both
// slash styles.
func splitBase(p string) (dir, base string) {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return "", p
	}
	return p[:i+1], p[i+1:]
}

// Ext returns the lower-case extension without the dot.
func Ext(p string) string {
	_, base := splitBase(p)
	return strings.TrimPrefix(strings.ToLower(path.Ext(base)), ".")
}
