package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyScore_Identity(t *testing.T) {
	for _, s := range []string{"", "bug", "Fix login bug", "a b c"} {
		assert.Equal(t, 1.0, FuzzyScore(s, s))
	}

	// Case-insensitive
	assert.Equal(t, 1.0, FuzzyScore("Fix Login Bug", "fix login bug"))
}

func TestFuzzyScore_Empty(t *testing.T) {
	assert.Equal(t, 0.0, FuzzyScore("", "bug"))
	assert.Equal(t, 0.0, FuzzyScore("bug", ""))
	assert.Equal(t, 1.0, FuzzyScore("", ""))
}

func TestFuzzyScore_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"fix login bug", "login issue"},
		{"bug", "fix login bug"},
		{"documentation", "docs"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		assert.Equal(t, FuzzyScore(p[0], p[1]), FuzzyScore(p[1], p[0]), "pair %v", p)
	}
}

func TestFuzzyScore_SubstringFloor(t *testing.T) {
	// "bug" is 3/13 of "fix login bug"; the containment floor keeps it at 0.6
	assert.Equal(t, 0.6, FuzzyScore("fix login bug", "bug"))

	// Longer containment scores by length ratio
	assert.InDelta(t, 9.0/13.0, FuzzyScore("fix login bug", "login bug"), 1e-9)
}

func TestFuzzyScore_EditDistance(t *testing.T) {
	// lev("fix login bug", "login issue") == 8, max len 13
	assert.InDelta(t, 1.0-8.0/13.0, FuzzyScore("fix login bug", "login issue"), 1e-9)

	// Entirely different strings score low but stay in range
	score := FuzzyScore("abc", "xyz")
	assert.GreaterOrEqual(t, score, 0.0)
	assert.Less(t, score, 0.3)
}

func TestWordMatchScore(t *testing.T) {
	// One of two query words matches one of three title words
	assert.InDelta(t, 1.0/3.0, WordMatchScore("fix login bug", "login issue"), 1e-9)

	// All query words present
	assert.Equal(t, 1.0, WordMatchScore("fix login bug", "fix login bug"))

	// Containment counts as a word match
	assert.InDelta(t, 1.0/2.0, WordMatchScore("update docs", "documentation docs"), 1e-9)

	// No overlap
	assert.Equal(t, 0.0, WordMatchScore("fix login bug", "deploy"))

	// Empty sides
	assert.Equal(t, 0.0, WordMatchScore("", "bug"))
	assert.Equal(t, 0.0, WordMatchScore("bug", ""))
}

func TestFieldScore_TakesBetterSignal(t *testing.T) {
	// Character-level wins for paraphrases
	assert.Equal(t, FuzzyScore("fix login bug", "login issue"), FieldScore("fix login bug", "login issue"))

	// A single contained word rides the character-level containment floor
	title := "investigate intermittent checkout failures on mobile"
	assert.Equal(t, 0.6, FieldScore(title, "checkout"))

	// Word-level wins when the query is not a substring: "failuers" only
	// matches "failures" through the per-word fuzzy check
	assert.InDelta(t, 1.0/3.0, WordMatchScore(title, "checkout failuers"), 1e-9)
	assert.Equal(t, WordMatchScore(title, "checkout failuers"), FieldScore(title, "checkout failuers"))
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"bug", "issue", 4},
		{"fix login bug", "login issue", 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, levenshtein(c.a, c.b), "%q vs %q", c.a, c.b)
	}
}
