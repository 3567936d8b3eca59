package ocr

import (
	"strings"
	"unicode"
)

// Alphabet holds the only letters a gene cell can contain.
const Alphabet = "GHWXY"

// Candidate is the outcome of recognizing one gene cell: a single letter of
// Alphabet, or no match.
type Candidate struct {
	letter rune
}

// NoMatch is the Candidate for a cell that did not read as a gene letter.
var NoMatch = Candidate{}

// Recognized returns the Candidate for r, or NoMatch when r is not in
// Alphabet.
func Recognized(r rune) Candidate {
	if !strings.ContainsRune(Alphabet, r) {
		return NoMatch
	}
	return Candidate{letter: r}
}

// ParseCandidate interprets raw engine output. Whitespace anywhere in the
// text is ignored and letters are upper-cased; what remains must be exactly
// one letter of Alphabet.
func ParseCandidate(raw string) Candidate {
	text := strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw))

	runes := []rune(text)
	if len(runes) != 1 {
		return NoMatch
	}
	return Recognized(runes[0])
}

// Matched reports whether the cell read as a gene letter.
func (c Candidate) Matched() bool {
	return c.letter != 0
}

// Rune returns the letter, or 0 for NoMatch.
func (c Candidate) Rune() rune {
	return c.letter
}

// String returns the letter, or "" for NoMatch.
func (c Candidate) String() string {
	if c.letter == 0 {
		return ""
	}
	return string(c.letter)
}
