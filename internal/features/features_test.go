package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestMoneyAnchorScore(t *testing.T) {
	cases := []struct {
		anchor string
		want   float64
	}{
		{"Best Casino Bonus", 1.0},
		{"Buy Cheap Stuff", 0.6},
		{"Click here!!!", 0.6}, // "click here" matches the medium-risk phrase list before punctuation is checked
		{"WWW.WOW.COM", 0.4},
		{"SHOUTYLONGANCHOR", 0.3},
		{"normal anchor text", 0.0},
		{"", 0.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, moneyAnchorScore(c.anchor), 1e-9, c.anchor)
	}
}

func TestDomainNameSuspicion(t *testing.T) {
	assert.Equal(t, 0.0, domainNameSuspicion(""))
	assert.InDelta(t, 0.4, domainNameSuspicion("abc123xyz999longenough"), 1e-9)
	assert.LessOrEqual(t, domainNameSuspicion("a-b-c-d-e.com"), 1.0)
}

func TestExtract_IPReuseRatio(t *testing.T) {
	now := time.Now()
	backlinks := []models.BacklinkSignal{
		{SourceURL: "a", IP: "1.1.1.1"},
		{SourceURL: "b", IP: "1.1.1.1"},
	}
	agg := aggregator.Build(backlinks, now)

	v := Extract(&backlinks[0], agg)
	assert.InDelta(t, 1.0, v[IdxIPReuseRatio], 1e-9)
	assert.InDelta(t, v[IdxIPReuseRatio], v[IdxHostingPattern], 1e-9)
}

func TestExtract_SpamScoreAbsentDefaultsToHalf(t *testing.T) {
	now := time.Now()
	b := models.BacklinkSignal{SourceURL: "a"}
	agg := aggregator.Build([]models.BacklinkSignal{b}, now)
	v := Extract(&b, agg)
	assert.InDelta(t, 0.5, v[IdxSpamScoreNormalized], 1e-9)
}

func TestExtract_SpamScoreClamped(t *testing.T) {
	now := time.Now()
	b := models.BacklinkSignal{SourceURL: "a", SpamScore: intPtr(150)}
	agg := aggregator.Build([]models.BacklinkSignal{b}, now)
	v := Extract(&b, agg)
	assert.InDelta(t, 1.0, v[IdxSpamScoreNormalized], 1e-9)
}

func TestApplyEnhancedBoosts_CapsAt99(t *testing.T) {
	ev := EnhancedVector{
		LinkStability: 0, TemporalClustering: 1, ClusteringCoefficient: 1,
		NetworkDensity: 1, AgeZScore: -5, RankZScore: -5, SpamZScore: 5,
	}
	got := ApplyEnhancedBoosts(0.9, ev)
	assert.LessOrEqual(t, got, 0.99)
}

func TestApplyEnhancedBoosts_NoTriggersIsIdentity(t *testing.T) {
	got := ApplyEnhancedBoosts(0.42, EnhancedVector{})
	assert.InDelta(t, 0.42, got, 1e-9)
}
