package catalog

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lower-cases s, collapses runs of non-alphanumerics into one hyphen
// and trims hyphens from both ends.
func Slugify(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func ValidSlug(s string) bool {
	return validSlug.MatchString(s)
}
