package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectKeywordsRanksByFrequency(t *testing.T) {
	phrases := []string{"go", "rust", "go", "zig", "go", "rust"}
	keywords := SelectKeywords("go rust zig", phrases, 3)
	assert.Equal(t, []string{"go", "rust", "zig"}, keywords)
}

func TestSelectKeywordsTieKeepsFirstSeenOrder(t *testing.T) {
	phrases := []string{"beta", "alpha", "beta", "alpha"}
	keywords := SelectKeywords("beta alpha", phrases, 2)
	assert.Equal(t, []string{"beta", "alpha"}, keywords)
}

func TestSelectKeywordsRarePhrasesScoreHigherAtEqualCount(t *testing.T) {
	// "common" appears in both sentences, "rare" in one. Same count, so the
	// inverse document frequency should favor "rare".
	text := "common rare end。common other end"
	phrases := []string{"common", "rare"}
	keywords := SelectKeywords(text, phrases, 1)
	assert.Equal(t, []string{"rare"}, keywords)
}

func TestSelectKeywordsSkipsBlankPhrases(t *testing.T) {
	phrases := []string{" ", "term", ""}
	keywords := SelectKeywords("term", phrases, 3)
	assert.Equal(t, []string{"term"}, keywords)
}

func TestSelectKeywordsEmptyInput(t *testing.T) {
	assert.Empty(t, SelectKeywords("text", nil, 3))
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("一つ目。二つ目。\nThird one. ")
	assert.Equal(t, []string{"一つ目", "二つ目", "Third one"}, sentences)
}
