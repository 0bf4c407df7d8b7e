package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "punctuation", input: "Hello, World!", want: "hello-world"},
		{name: "surrounding whitespace", input: "   Go Concurrency Patterns  ", want: "go-concurrency-patterns"},
		{name: "repeated separators", input: "a -- b __ c", want: "a-b-c"},
		{name: "non ascii letters", input: "Café au lait", want: "caf-au-lait"},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!!! ???", want: ""},
		{name: "digits kept", input: "Top 10 Tips for 2024", want: "top-10-tips-for-2024"},
		{
			name:  "truncated without trailing dash",
			input: "A very long title that keeps on going - and going forever",
			want:  "a-very-long-title-that-keeps-on-goin",
		},
		{
			name:  "truncation on a separator",
			input: "abcdefghij abcdefghij abcdefghij ab cdef",
			want:  "abcdefghij-abcdefghij-abcdefghij-ab",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Slugify(tc.input)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), MaxSlugLength)
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  --Leading and trailing--  ",
		"Ünïcödé tïtlé wïth äccents",
		"A very long title that keeps on going - and going forever",
		"123 456 789 012 345 678 901 234 567 890",
		"already-a-slug",
		"",
		"a-",
		strings.Repeat("x", 35) + " y",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := Slugify(input)
			assert.Equal(t, once, Slugify(once))
			if once != "" {
				assert.True(t, SlugRX.MatchString(once), "slug %q must match the slug pattern", once)
			}
		})
	}
}

func TestEstimateReadMinutes(t *testing.T) {
	testCases := []struct {
		name  string
		words int
		want  int
	}{
		{name: "empty", words: 0, want: 1},
		{name: "one word", words: 1, want: 1},
		{name: "exactly one minute", words: 200, want: 1},
		{name: "just over a minute", words: 201, want: 2},
		{name: "four hundred words", words: 400, want: 2},
		{name: "long read", words: 1001, want: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.TrimSpace(strings.Repeat("word ", tc.words))
			assert.Equal(t, tc.want, EstimateReadMinutes(text))
		})
	}
}
