// Package content holds the pure text helpers used around post bodies: HTML
// stripping, slug derivation and read-time estimates.
package content

import (
	"math"
	"regexp"
	"strings"
)

// MaxSlugLength is the longest slug Slugify returns. It matches the document id limit of the store.
const MaxSlugLength = 36

const wordsPerMinute = 200

var (
	slugSeparatorRX = regexp.MustCompile(`[^a-z0-9]+`)
	SlugRX          = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lowercases title and joins its alphanumeric runs with single dashes.
// Slugify(Slugify(s)) == Slugify(s) for every s.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugSeparatorRX.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}

	return s
}

// EstimateReadMinutes returns the reading time of text at 200 words per minute, never less than one.
func EstimateReadMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
