// Package wordfreq counts word occurrences in visible page text.
//
// Counting is a fixed pipeline and the order matters:
//  1. non-ASCII characters are dropped
//  2. ASCII punctuation is removed
//  3. the text is split on the single space character
//  4. empty tokens are discarded
//  5. tokens are lower-cased and counted
//
// Tokens are split on a literal space, not on any whitespace. Runs of spaces
// yield empty tokens, which step 4 throws away, and a newline inside one text
// node stays inside its token.
package wordfreq

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Punctuation is the ASCII punctuation set removed before tokenizing.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// separator is the only byte tokens are split on.
const separator = " "

// StripNonASCII removes every rune outside 7-bit ASCII.
// Invalid UTF-8 bytes are removed as well.
func StripNonASCII(s string) string {
	t := runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		// runes.Remove never fails on complete input.
		return s
	}
	return out
}

// StripPunctuation removes every character of Punctuation.
func StripPunctuation(s string) string {
	t := runes.Remove(runes.Predicate(func(r rune) bool {
		return strings.ContainsRune(Punctuation, r)
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize splits s on the single space character.
// Empty tokens are returned as is.
func Tokenize(s string) []string {
	return strings.Split(s, separator)
}

// Normalize applies the character filters that run before tokenizing.
func Normalize(text string) string {
	return StripPunctuation(StripNonASCII(text))
}

// Count builds a frequency table from visible text.
// It is pure: the same text always yields an equal table.
func Count(text string) *Table {
	lower := cases.Lower(language.Und)
	table := NewTable()
	for _, token := range Tokenize(Normalize(text)) {
		if token == "" {
			continue
		}
		table.Add(lower.String(token))
	}
	return table
}
