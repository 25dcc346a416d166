// Package parsing normalizes untrusted text produced by CV extraction: names, free-text
// dates and tokens used for comparison.
package parsing

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// letters that carry no combining mark and survive NFD decomposition
var foldReplacer = strings.NewReplacer("đ", "d", "Đ", "d", "ø", "o", "Ø", "o", "ł", "l", "Ł", "l")

// StripDiacritics removes combining marks, so "Giỏi" becomes "Gioi" and "Đà Nẵng" becomes "da Nang".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// NormalizeSkillName returns the catalog lookup key of a skill name: case, whitespace
// and diacritic insensitive. Symbols are kept so "C++" and "C#" stay distinct.
func NormalizeSkillName(skillName string) string {
	if skillName == "" {
		return ""
	}
	normalized := strings.ToLower(StripDiacritics(skillName))
	normalized = reSpaces.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// FoldText reduces text to lower-case words without diacritics or punctuation,
// separated by single spaces.
func FoldText(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	s = reNonWord.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits folded text into words
func Tokens(s string) []string {
	folded := FoldText(s)
	if folded == "" {
		return nil
	}
	return strings.Split(folded, " ")
}

// TokenSet returns the distinct folded tokens of all inputs
func TokenSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range values {
		for _, tok := range Tokens(v) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// TermSet returns the distinct normalized terms of a list, one term per entry.
// Used for technology lists where "Node.js" must stay a single term.
func TermSet(values []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range values {
		if n := NormalizeSkillName(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
