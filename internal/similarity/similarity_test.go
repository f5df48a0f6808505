package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard_IdenticalTextIsSimilarityOne(t *testing.T) {
	text := "this is a sample piece of content about widgets and gadgets"
	a := Build(text)
	b := Build(text)
	assert.InDelta(t, 1.0, Jaccard(a, b), 1e-9)
}

func TestJaccard_DisjointTextIsLowSimilarity(t *testing.T) {
	a := Build("quantum mechanics describes subatomic particle behavior in detail")
	b := Build("the recipe calls for two cups of flour and one egg")
	assert.Less(t, Jaccard(a, b), 0.3)
}

func TestDetectDuplicates_BelowThresholdUsesBruteForce(t *testing.T) {
	shared := "buy cheap replica watches online today now"
	snippets := []string{shared, shared, "completely unrelated text about gardening tips"}

	ratio := DetectDuplicates(snippets, 0.8, nil)
	assert.Greater(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 1.0)
}

func TestDetectDuplicates_TooFewSnippetsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, DetectDuplicates([]string{"only one snippet here"}, 0.8, nil))
	assert.Equal(t, 0.0, DetectDuplicates(nil, 0.8, nil))
}

func TestDetectDuplicates_AtThresholdUsesLSH(t *testing.T) {
	shared := "buy cheap replica watches online today now immediately"
	snippets := make([]string, 12)
	for i := range snippets {
		if i%2 == 0 {
			snippets[i] = shared
		} else {
			snippets[i] = "totally different unrelated gardening content here today"
		}
	}

	ratio := DetectDuplicates(snippets, 0.8, nil)
	assert.Greater(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 1.0)
}

func TestShingles_TooShortTextYieldsNone(t *testing.T) {
	assert.Empty(t, Shingles("a b c", 4))
	assert.Len(t, Shingles("a b c d", 4), 1)
	assert.Len(t, Shingles("a b c d e", 4), 2)
}
