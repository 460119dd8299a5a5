package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g. "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name:     "Internal punctuation",
			input:    "Look at B.a.d.g.e.r !",
			expected: "Look at *********** !",
			words:    []string{"badger"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
			words:    []string{"snake", "badger"},
		},
		{
			name:     "Accents around the match (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			words:    []string{"badger"},
		},
		{
			name:     "Clean content is untouched",
			input:    "Nothing to see here",
			expected: "Nothing to see here",
			words:    nil,
		},
		{
			name:     "Punctuation only",
			input:    "!!! ... ---",
			expected: "!!! ... ---",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			sanitized, matched := mod.Censor(tt.input)
			req.Equal(tt.expected, sanitized)
			req.Len(matched, len(tt.words))
		})
	}
}

func TestModerator_EmptyDictionaryIsPassThrough(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(nil, replacementChar)
	req.NoError(err)

	sanitized, matched := mod.Censor("badger snake mushroom")
	req.Equal("badger snake mushroom", sanitized)
	req.Empty(matched)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("This is clearly a long English sentence about the weather today."))
	req.Equal("fr", DetectLanguage("Ceci est clairement une longue phrase française à propos de la météo."))
	req.Empty(DetectLanguage("ok"))
}
