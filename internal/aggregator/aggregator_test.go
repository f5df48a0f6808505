package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawblock/pbn-detector/internal/models"
)

func ptrTime(d time.Duration, now time.Time) *models.FlexTime {
	t := models.FlexTime(now.Add(-d))
	return &t
}

func TestBuild_SharedIPCluster(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backlinks := make([]models.BacklinkSignal, 10)
	for i := range backlinks {
		backlinks[i] = models.BacklinkSignal{SourceURL: "https://x/" + string(rune('a'+i)), IP: "1.2.3.4"}
	}

	agg := Build(backlinks, now)

	require.Equal(t, 10, agg.TotalPeers)
	assert.Equal(t, 10, agg.IPCounts["1.2.3.4"])
	assert.True(t, agg.MaybeSharedIP("1.2.3.4"))
	assert.False(t, agg.MaybeSharedIP("9.9.9.9"))
}

func TestBuild_VelocityWindowsCumulative(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backlinks := []models.BacklinkSignal{
		{SourceURL: "a", FirstSeen: ptrTime(3*24*time.Hour, now)},
		{SourceURL: "b", FirstSeen: ptrTime(20*24*time.Hour, now)},
		{SourceURL: "c", FirstSeen: ptrTime(60*24*time.Hour, now)},
		{SourceURL: "d", FirstSeen: nil},
	}

	agg := Build(backlinks, now)

	assert.Equal(t, 1, agg.VelocityWindows["7d"])
	assert.Equal(t, 2, agg.VelocityWindows["30d"])
	assert.Equal(t, 3, agg.VelocityWindows["90d"])
	assert.LessOrEqual(t, agg.VelocityWindows["7d"], agg.VelocityWindows["30d"])
	assert.LessOrEqual(t, agg.VelocityWindows["30d"], agg.VelocityWindows["90d"])
}

func TestBuild_NullKeysContributeNothing(t *testing.T) {
	now := time.Now()
	backlinks := []models.BacklinkSignal{
		{SourceURL: "a"},
		{SourceURL: "b"},
	}
	agg := Build(backlinks, now)
	assert.Empty(t, agg.IPCounts)
	assert.Empty(t, agg.RegistrarCounts)
	assert.Equal(t, 2, agg.TotalPeers)
}
