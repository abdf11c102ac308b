// Package grapheme splits words into the letter units a player guesses.
//
// Serbian Latin spells three letters with two characters (DŽ, LJ, NJ); those
// count as a single unit everywhere a word length or position matters.
package grapheme

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/connectaword/internal/model"
)

// serbianDigraphs are matched greedily, in order, before single runes
var serbianDigraphs = [][]rune{
	[]rune("DŽ"),
	[]rune("LJ"),
	[]rune("NJ"),
}

var englishConsonants = toSet("B", "C", "D", "F", "G", "H", "K", "L", "M", "N",
	"P", "Q", "R", "S", "T", "V", "W", "X", "Y", "Z")

var serbianConsonants = toSet("B", "C", "Č", "Ć", "D", "DŽ", "Đ", "F", "G", "H",
	"K", "L", "LJ", "M", "N", "NJ", "P", "R", "S", "Š", "T", "V", "Z", "Ž")

// Normalize returns the uppercase NFC form of a word
func Normalize(word string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(word)))
}

// Tokenize splits word into uppercase letter units for the given language.
// Matching is case-insensitive; joining the result yields Normalize(word).
func Tokenize(word string, lang model.Language) []string {
	runes := []rune(Normalize(word))
	tokens := make([]string, 0, len(runes))

	for i := 0; i < len(runes); {
		if lang == model.LanguageSerbian {
			if d := matchDigraph(runes[i:]); d > 0 {
				tokens = append(tokens, string(runes[i:i+d]))
				i += d
				continue
			}
		}
		tokens = append(tokens, string(runes[i]))
		i++
	}
	return tokens
}

func matchDigraph(runes []rune) int {
	for _, d := range serbianDigraphs {
		if len(runes) < len(d) {
			continue
		}
		matched := true
		for j, r := range d {
			if runes[j] != r {
				matched = false
				break
			}
		}
		if matched {
			return len(d)
		}
	}
	return 0
}

// VisualLength returns the number of letter units in word
func VisualLength(word string, lang model.Language) int {
	return len(Tokenize(word, lang))
}

// Join concatenates tokens back into a word
func Join(tokens []string) string {
	return strings.Join(tokens, "")
}

// IsConsonant reports whether token is a consonant unit in the given language
func IsConsonant(token string, lang model.Language) bool {
	switch lang {
	case model.LanguageSerbian:
		_, ok := serbianConsonants[token]
		return ok
	default:
		_, ok := englishConsonants[token]
		return ok
	}
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
