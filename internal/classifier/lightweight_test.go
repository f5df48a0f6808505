package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/models"
)

func TestLightweight_CleanEstablishedSiteScoresLow(t *testing.T) {
	var v features.Vector
	v[features.IdxDomainRank] = 5000
	v[features.IdxDomainAgeDays] = 4000
	v[features.IdxIPReuseRatio] = 0
	v[features.IdxRegistrarReuseRatio] = 0
	v[features.IdxLinkVelocity] = 0
	v[features.IdxAnchorLength] = 20
	v[features.IdxSpamScoreNormalized] = 0.1

	b := &models.BacklinkSignal{SafeBrowsingStatus: "clean"}

	p := Lightweight{}.PredictProba(v, b)
	assert.Less(t, p, 0.4)
}

func TestLightweight_SpamNetworkCompositeBoost(t *testing.T) {
	var v features.Vector
	v[features.IdxDomainRank] = 10
	v[features.IdxDomainAgeDays] = 20
	v[features.IdxIPReuseRatio] = 0.5
	v[features.IdxRegistrarReuseRatio] = 0.5
	v[features.IdxLinkVelocity] = 0.6
	v[features.IdxMoneyAnchorScore] = 1.0
	v[features.IdxDomainNameSuspicion] = 0.8
	v[features.IdxSpamScoreNormalized] = 0.95

	b := &models.BacklinkSignal{SafeBrowsingStatus: "flagged"}

	p := Lightweight{}.PredictProba(v, b)
	assert.Greater(t, p, 0.8)
	assert.LessOrEqual(t, p, 1.0)
}

func TestLightweight_AdditiveFinalTweaksApplied(t *testing.T) {
	var v features.Vector
	v[features.IdxDomainRank] = 5
	v[features.IdxSpamScoreNormalized] = 0.95

	b := &models.BacklinkSignal{}

	p := Lightweight{}.PredictProba(v, b)
	assert.InDelta(t, 0.9475, p, 1e-9)
}

func TestLightweight_ModelVersion(t *testing.T) {
	assert.Equal(t, models.ModelVersionLightweight, Lightweight{}.ModelVersion())
}

func TestLearned_FallsBackWhenNoModelLoaded(t *testing.T) {
	c := NewLearned("", discardLogger())
	var v features.Vector
	b := &models.BacklinkSignal{}
	got := c.PredictProba(v, b)
	want := Lightweight{}.PredictProba(v, b)
	assert.InDelta(t, want, got, 1e-9)
	assert.Equal(t, models.ModelVersionLightweight, c.ModelVersion())
}
