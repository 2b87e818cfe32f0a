package keyword

import (
	"math"
	"strings"
)

// Ratio returns the normalized indel similarity of a and b on a 0-100 scale:
// 100 * 2*LCS / (len(a)+len(b)), measured in runes after lowercasing.
// Two empty strings score 100; one empty string scores 0.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
}

// PartialRatio returns the best Ratio of the shorter input against every
// same-length window of the longer one. A short word hidden inside a long
// title therefore scores as high as the closest matching stretch of it.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		score := ratioRunes(ra, rb[start:start+len(ra)])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	lcs := lcsLength(a, b)
	return round2(100 * float64(2*lcs) / float64(total))
}

// lcsLength is the longest-common-subsequence length of a and b.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
		clear(curr)
	}
	return prev[len(b)]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
