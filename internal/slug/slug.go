// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var (
	apostrophes = strings.NewReplacer("'", "", "’", "")
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make lowercases s, drops apostrophes, collapses every other run of
// non-alphanumerics into one hyphen and trims hyphens from both ends.
func Make(s string) string {
	s = apostrophes.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
