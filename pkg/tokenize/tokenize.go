// Package tokenize extracts word-like tokens from buffer text and splits identifiers
// into subwords for abbreviation matching.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSigils holds the characters allowed as a single token prefix.
const DefaultSigils = "$"

// Tokenizer scans text for tokens of the form `sigil? word+`.
type Tokenizer struct {
	sigils string
}

// Default is the tokenizer used by the package-level helpers.
var Default = NewTokenizer(DefaultSigils)

// NewTokenizer creates a tokenizer accepting any rune of sigils as a token prefix.
// An empty set disables sigil support.
func NewTokenizer(sigils string) *Tokenizer {
	return &Tokenizer{sigils: sigils}
}

// Sigils returns the configured sigil set.
func (t *Tokenizer) Sigils() string {
	return t.sigils
}

// IsWordRune reports whether r belongs to a word (letter, digit or underscore).
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsSigil reports whether r is one of the tokenizer's sigils.
func (t *Tokenizer) IsSigil(r rune) bool {
	return t.sigils != "" && strings.ContainsRune(t.sigils, r)
}

// Extract returns every token in text, in order of appearance, duplicates included.
func (t *Tokenizer) Extract(text string) []string {
	var tokens []string
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		start := i
		switch {
		case IsWordRune(r):
			i += size
		case t.IsSigil(r):
			next, nextSize := utf8.DecodeRuneInString(text[i+size:])
			if nextSize == 0 || !IsWordRune(next) {
				i += size
				continue
			}
			i += size
		default:
			i += size
			continue
		}
		i = scanWord(text, i)
		tokens = append(tokens, text[start:i])
	}
	return tokens
}

// scanWord advances i past a run of word runes.
func scanWord(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !IsWordRune(r) {
			break
		}
		i += size
	}
	return i
}

// StripSigil removes a single leading sigil from s.
func (t *Tokenizer) StripSigil(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size > 0 && t.IsSigil(r) {
		return s[size:]
	}
	return s
}

// Extract tokenizes text with the default sigil set.
func Extract(text string) []string {
	return Default.Extract(text)
}

// StripSigil removes a leading default sigil from s.
func StripSigil(s string) string {
	return Default.StripSigil(s)
}

// Subwords splits s at camelCase, PascalCase, snake_case and digit boundaries.
//
// A subword is a letter followed by any number of lowercase letters, or a run of
// digits. Everything else (underscores, sigils, punctuation) only separates subwords,
// so "HTTPServer" gives H, T, T, P, Server and "utf8Decode" gives utf, 8, Decode.
func Subwords(s string) []string {
	var parts []string
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		start := i
		i += size
		switch {
		case unicode.IsDigit(r):
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if !unicode.IsDigit(r) {
					break
				}
				i += size
			}
		case unicode.IsLetter(r):
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if !unicode.IsLower(r) {
					break
				}
				i += size
			}
		default:
			continue
		}
		parts = append(parts, s[start:i])
	}
	return parts
}
