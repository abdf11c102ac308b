// Package evaluator scores a guess against a target word, one letter unit at a time.
package evaluator

import (
	"unicode/utf8"

	"github.com/mcoot/connectaword/internal/model"
)

// Result is the outcome of evaluating one guess
type Result struct {
	// Pattern is the current pattern with exact matches revealed
	Pattern []string
	// Misplaced holds the first character of each unit present elsewhere in
	// the target, deduplicated, in the order discovered
	Misplaced []string
}

// Evaluate compares guess to target, both tokenized to the same length.
// Positions not confirmed by this guess keep their value from current.
//
// Exact matches are claimed first so a letter that also appears misplaced
// is never counted twice; each target unit backs at most one guess unit.
func Evaluate(guess, target, current []string) Result {
	pattern := append([]string(nil), current...)
	targetUsed := make([]bool, len(target))
	guessUsed := make([]bool, len(guess))

	for i := range guess {
		if i < len(target) && guess[i] == target[i] {
			pattern[i] = guess[i]
			targetUsed[i] = true
			guessUsed[i] = true
		}
	}

	var misplaced []string
	seen := make(map[string]struct{})
	for i := range guess {
		if guessUsed[i] {
			continue
		}
		for j := range target {
			if targetUsed[j] || guess[i] != target[j] {
				continue
			}
			targetUsed[j] = true
			letter := firstChar(guess[i])
			if _, ok := seen[letter]; !ok {
				seen[letter] = struct{}{}
				misplaced = append(misplaced, letter)
			}
			break
		}
	}

	return Result{Pattern: pattern, Misplaced: misplaced}
}

// Solved reports whether the pattern fully reveals the target
func Solved(pattern, target []string) bool {
	if len(pattern) != len(target) {
		return false
	}
	for i := range pattern {
		if pattern[i] != target[i] {
			return false
		}
	}
	return true
}

// ConsistentWithPattern reports whether guess agrees with every revealed position
func ConsistentWithPattern(guess, pattern []string) bool {
	if len(guess) != len(pattern) {
		return false
	}
	for i := range pattern {
		if pattern[i] != model.HiddenToken && pattern[i] != guess[i] {
			return false
		}
	}
	return true
}

func firstChar(token string) string {
	r, _ := utf8.DecodeRuneInString(token)
	return string(r)
}
