package selector

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// foldCase is the Unicode-aware lowercasing used for token comparisons, in
// place of strings.ToLower, so non-ASCII release names fold the way a
// locale-correct comparison would rather than byte-wise.
var foldCase = cases.Lower(language.Und)

// token is one lexical piece of a tokenized name. joinedToPrev records
// whether it immediately follows the previous token on a letter/digit
// transition with no separator in between (the "64" in "win64"), as
// opposed to following an explicit separator (the "64" in "x86_64").
// matchableSet uses this to reconstruct compound alias tokens with the
// correct join.
type token struct {
	text         string
	joinedToPrev bool
}

// tokenize splits a lowercased filename into word tokens, per §4.4's
// boundary set: the explicit separators `[-_.+/ ]` and any transition
// between a letter and a digit. A name that omits punctuation before a
// compound OS/arch word - "tool-v2win64.zip" - still yields separate "win"
// and "64" tokens this way, on the digit/letter boundary ahead of "win" and
// the letter/digit boundary ahead of "64"; matchableSet rejoins them into
// "win64".
func tokenize(name string) []token {
	folded := foldCase.String(name)
	runes := []rune(folded)

	var tokens []token
	var cur []rune
	joinedToPrev := false

	flush := func(nextJoined bool) {
		if len(cur) > 0 {
			tokens = append(tokens, token{text: string(cur), joinedToPrev: joinedToPrev})
			cur = cur[:0]
		}
		joinedToPrev = nextJoined
	}

	for i, r := range runes {
		switch r {
		case '-', '_', '.', '+', '/', ' ':
			flush(false)
			continue
		}
		if len(cur) > 0 && isLetterDigitBoundary(runes[i-1], r) {
			flush(true)
		}
		cur = append(cur, r)
	}
	flush(false)
	return tokens
}

// isLetterDigitBoundary reports whether r follows prev on a letter/digit
// transition, in either direction.
func isLetterDigitBoundary(prev, r rune) bool {
	prevDigit, rDigit := unicode.IsDigit(prev), unicode.IsDigit(r)
	prevLetter, rLetter := unicode.IsLetter(prev), unicode.IsLetter(r)
	return (prevDigit && rLetter) || (prevLetter && rDigit)
}

func tokenSet(tokens []token) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t.text] = true
	}
	return set
}

// matchableSet is the token set used for OS/arch alias comparison: the
// plain tokens, plus every contiguous run of tokens rejoined into the
// word(s) it was split from. A run rejoins with no separator across a
// joinedToPrev boundary (reconstructing "win64" out of "win"+"64", or
// "aarch64" out of "aarch"+"64") and with "_" across an explicit-separator
// boundary (reconstructing "x86_64" out of "x86"+"64", itself first
// reconstructed from "x"+"86"). Without this, aliases that are themselves
// internally alphanumeric (win64, 64bit, aarch64, x86_64) could never
// appear as a single matchable token once tokenize also splits on
// letter/digit transitions.
func matchableSet(tokens []token) map[string]bool {
	set := make(map[string]bool, len(tokens)*2)
	for _, t := range tokens {
		set[t.text] = true
	}
	for i := range tokens {
		var b strings.Builder
		b.WriteString(tokens[i].text)
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].joinedToPrev {
				b.WriteString(tokens[j].text)
			} else {
				b.WriteByte('_')
				b.WriteString(tokens[j].text)
			}
			set[b.String()] = true
		}
	}
	return set
}

// looksLikeSupplemental filters out checksum/signature files that should
// never be considered as installable artifacts.
func looksLikeSupplemental(nameLower string) bool {
	if strings.HasSuffix(nameLower, ".asc") || strings.HasSuffix(nameLower, ".sig") ||
		strings.HasSuffix(nameLower, ".sig.ed25519") || strings.HasSuffix(nameLower, ".minisig") {
		return true
	}
	return strings.Contains(nameLower, "sha256") || strings.Contains(nameLower, "sha512") ||
		strings.Contains(nameLower, "checksum")
}
