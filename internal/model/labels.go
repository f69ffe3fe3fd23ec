package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns a property name into display text. Each underscore,
// dash or space separated segment starts with a capital; camelCase humps
// inside a segment read as lowercase words ("howToUse" becomes "How to use").
func DefaultLabeler(name string) string {
	segments := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, segment := range segments {
		segments[i] = capitalize(strings.ToLower(strings.Join(humps(segment), " ")))
	}
	return strings.Join(segments, " ")
}

// humps splits a camelCase segment at lower-to-upper transitions and at the
// edges of digit runs.
func humps(segment string) []string {
	runes := []rune(segment)
	var (
		words []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		split := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsLetter(prev) && unicode.IsDigit(cur) ||
			unicode.IsDigit(prev) && unicode.IsLetter(cur)
		if split {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func capitalize(word string) string {
	for i, r := range word {
		return string(unicode.ToUpper(r)) + word[i+len(string(r)):]
	}
	return word
}
