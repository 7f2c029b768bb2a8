package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const filenameReplacement = "-"

var invalidFilenameChars = regexp.MustCompile(`[/\\<>:"|?*]+`)

// ValidFilename makes raw usable as a repository node name: NFC normalized,
// without control and format characters, path separators and reserved
// characters replaced, no surrounding blanks and no leading dots.
func ValidFilename(raw string) string {
	t := transform.Chain(
		norm.NFC,
		runes.Remove(runes.In(unicode.Cc)),
		runes.Remove(runes.In(unicode.Cf)),
	)

	name, _, err := transform.String(t, raw)
	if err != nil {
		name = raw
	}

	name = invalidFilenameChars.ReplaceAllString(name, filenameReplacement)
	name = strings.TrimSpace(name)

	return strings.TrimLeft(name, ".")
}
