package similarity

import "strings"

// FuzzyScore computes a normalized, case-insensitive similarity between two
// strings in [0, 1]. Equal strings score 1.0, empty-vs-nonempty scores 0.0.
// Substring containment gets a floor of 0.6 so that short but meaningful
// substrings are not penalized by length ratio alone; everything else is
// scored by normalized edit distance.
func FuzzyScore(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := len(a), len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		ratio := float64(shorter) / float64(longer)
		if ratio < 0.6 {
			return 0.6
		}
		return ratio
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// WordMatchScore scores word-level overlap: a word of b counts as matched
// when some word of a contains it, is contained by it, or fuzzy-scores
// above 0.7 against it. The result is matches / max word count.
func WordMatchScore(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	matches := 0
	for _, wb := range wordsB {
		for _, wa := range wordsA {
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) || FuzzyScore(wa, wb) > 0.7 {
				matches++
				break
			}
		}
	}

	denom := len(wordsA)
	if len(wordsB) > denom {
		denom = len(wordsB)
	}
	return float64(matches) / float64(denom)
}

// FieldScore is the per-field signal: the better of the character-level and
// word-level scores. Short queries tend to match at the word level while
// paraphrases match at the character level.
func FieldScore(field, query string) float64 {
	fs := FuzzyScore(field, query)
	ws := WordMatchScore(field, query)
	if ws > fs {
		return ws
	}
	return fs
}

// levenshtein is the classic single-row DP edit distance; insertions,
// deletions and substitutions each cost 1. Inputs are already lower-cased.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, minInt(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
