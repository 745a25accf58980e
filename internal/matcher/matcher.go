// Package matcher scores free text against short names with a partial
// similarity metric and picks the best catalog item for a guest's phrase.
package matcher

import (
	"strings"

	"github.com/zulandar/concierge/internal/models"
)

// DefaultThreshold is the minimum catalog match score.
const DefaultThreshold = 65

// Ratio returns the normalized similarity of a and b on a 0-100 scale:
// twice the longest common subsequence over the combined length.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio returns the best Ratio of the shorter string against any
// alignment in the longer one: every equally long window, plus the prefixes
// and suffixes that the shorter string overhangs. Edge alignments are only
// tried when their boundary rune occurs in the shorter string. Equal length
// inputs are scored in both directions.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}

	best := partialRatio(ra, rb)
	if best < 100 && len(ra) == len(rb) {
		best = max(best, partialRatio(rb, ra))
	}
	return best
}

// partialRatio aligns needle (not longer than hay) against hay.
func partialRatio(needle, hay []rune) float64 {
	inNeedle := make(map[rune]struct{}, len(needle))
	for _, r := range needle {
		inNeedle[r] = struct{}{}
	}
	has := func(r rune) bool {
		_, ok := inNeedle[r]
		return ok
	}

	best := 0.0
	keep := func(score float64) bool {
		if score > best {
			best = score
		}
		return best == 100
	}

	n := len(needle)
	for i := 1; i < n; i++ {
		if has(hay[i-1]) && keep(ratio(needle, hay[:i])) {
			return best
		}
	}
	for start := 0; start+n <= len(hay); start++ {
		if keep(ratio(needle, hay[start:start+n])) {
			return best
		}
	}
	for start := len(hay) - n + 1; start < len(hay); start++ {
		if has(hay[start]) && keep(ratio(needle, hay[start:])) {
			return best
		}
	}
	return best
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcs(a, b)) / float64(total)
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// MatchCatalog returns the available item whose lowercased name scores
// highest against text, or false when the best score is below threshold.
// Ties keep the earlier item.
func MatchCatalog(text string, items []models.MenuItem, threshold int) (models.MenuItem, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	var (
		best      models.MenuItem
		bestScore = -1.0
	)
	for _, item := range items {
		if !item.Available {
			continue
		}
		score := PartialRatio(strings.ToLower(item.ItemName), text)
		if score > bestScore {
			best, bestScore = item, score
		}
	}
	if bestScore < float64(threshold) {
		return models.MenuItem{}, false
	}
	return best, true
}

// AnyAbove reports whether any keyword scores at least threshold against text.
func AnyAbove(text string, keywords []string, threshold int) bool {
	for _, kw := range keywords {
		if PartialRatio(kw, text) >= float64(threshold) {
			return true
		}
	}
	return false
}
