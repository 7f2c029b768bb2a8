// Package normalize maps relative source directory paths to repository folder paths.
package normalize

import (
	"regexp"
	"strings"
)

// Duplicate marker added by file managers to copied directories, e.g. "Photos (2)".
var duplicateMarker = regexp.MustCompile(`\([0-9]+\)`)

type SanitizeFunc func(raw string) string

type Normalizer struct {
	sanitize SanitizeFunc
}

func NewNormalizer(sanitize SanitizeFunc) *Normalizer {
	if sanitize == nil {
		sanitize = func(raw string) string { return raw }
	}

	return &Normalizer{sanitize: sanitize}
}

// Normalize strips duplicate markers from the last segment of relDir and
// sanitizes it. Ancestor segments are left untouched.
func (n *Normalizer) Normalize(relDir string) string {
	relDir = strings.Trim(relDir, "/")
	if relDir == "" {
		return ""
	}

	parent, base := "", relDir
	if i := strings.LastIndex(relDir, "/"); i >= 0 {
		parent, base = relDir[:i+1], relDir[i+1:]
	}

	fixed := n.sanitize(duplicateMarker.ReplaceAllString(base, ""))
	if fixed == "" {
		fixed = n.sanitize(base)
	}

	return parent + fixed
}
