// Package moderation censors banned words in message content before it is
// persisted or broadcast, and tags content with its detected language.
package moderation

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches a normalized form of the content against an
// Aho-Corasick automaton of banned words and stars out the original
// characters, preserving spacing and punctuation.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredRune rune
}

// NewModerator builds the automaton from the banned word list. An empty
// list yields a pass-through moderator.
func NewModerator(bannedWords []string, censoredRune rune) (*Moderator, error) {
	if len(bannedWords) == 0 {
		return &Moderator{censoredRune: censoredRune}, nil
	}
	patterns := make([][]rune, 0, len(bannedWords))
	for _, word := range bannedWords {
		normalized := normalize([]rune(word))
		if len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, censoredRune: censoredRune}, nil
}

// Censor replaces every occurrence of a banned word and returns the
// sanitized content plus the matched words.
func (m *Moderator) Censor(original string) (string, []string) {
	if m == nil || m.matcher == nil {
		return original, nil
	}

	origRunes := []rune(original)
	normalized := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		clean := unicode.ToLower(r)
		if isNoise(clean) {
			continue
		}
		normalized = append(normalized, clean)
		origIdx = append(origIdx, i)
	}
	if len(normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	var matched []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		matched = append(matched, string(span.Word))
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.censoredRune
		}
	}
	return string(origRunes), matched
}

// DetectLanguage returns the ISO 639-1 code of the detected language, or
// an empty string when detection is unreliable.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		lower := unicode.ToLower(r)
		if isNoise(lower) {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// isNoise drops separators and punctuation so "b-a-d" still matches "bad".
func isNoise(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
