// Package keyword provides the lexical utilities the search pipeline is built on:
// edit distances, fuzzy similarity ratios, typo correction and term extraction.
package keyword

import "strings"

// LevenshteinDistance returns the minimum number of single-rune insertions,
// deletions or substitutions needed to turn a into b. It is case-sensitive.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rows of the DP matrix are enough.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// FoldedDistance is LevenshteinDistance over the lowercased inputs.
func FoldedDistance(a, b string) int {
	return LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
}
