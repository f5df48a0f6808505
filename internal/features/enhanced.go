package features

import (
	"math"

	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/models"
)

// PopulationStats holds the mean/stdev of rank, age, and spam score across
// the whole batch — computed once per request alongside the Network
// Aggregate so the Enhanced Feature Extractor's z-scores stay O(n) total.
type PopulationStats struct {
	RankMean, RankStdev float64
	AgeMean, AgeStdev   float64
	SpamMean, SpamStdev float64
}

// BuildPopulationStats computes the mean/stdev of domain_rank,
// domain_age_days, and backlink_spam_score across every backlink that
// carries the field, defaulting to zero variance (no z-score signal) when
// fewer than two samples are present.
func BuildPopulationStats(backlinks []models.BacklinkSignal) PopulationStats {
	var ranks, ages, spams []float64
	for i := range backlinks {
		b := &backlinks[i]
		if b.DomainRank != nil {
			ranks = append(ranks, *b.DomainRank)
		}
		if b.DomainAge != nil {
			ages = append(ages, float64(*b.DomainAge))
		}
		if b.SpamScore != nil {
			spams = append(spams, float64(*b.SpamScore))
		}
	}

	rMean, rStd := meanStdev(ranks)
	aMean, aStd := meanStdev(ages)
	sMean, sStd := meanStdev(spams)

	return PopulationStats{
		RankMean: rMean, RankStdev: rStd,
		AgeMean: aMean, AgeStdev: aStd,
		SpamMean: sMean, SpamStdev: sStd,
	}
}

func meanStdev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	if len(xs) < 2 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	variance := sq / float64(len(xs))
	return mean, math.Sqrt(variance)
}

func zScore(value, mean, stdev float64) float64 {
	if stdev == 0 {
		return 0
	}
	return (value - mean) / stdev
}

// EnhancedVector is the additive-only temporal/graph/statistical signal
// set from spec.md §4.5. It never feeds the base classifiers directly —
// only the probability-boost pass, ApplyEnhancedBoosts, reads it.
type EnhancedVector struct {
	LinkStability         float64
	TemporalClustering    float64
	ClusteringCoefficient float64
	NetworkDensity        float64
	RankZScore            float64
	AgeZScore             float64
	SpamZScore            float64
}

// ExtractEnhanced computes the enhanced feature set for one backlink.
// Any computation here that would panic (nil aggregate, empty peers) is
// guarded and degrades to a zero vector — enhanced features are
// suppress-on-failure by contract (spec.md §4.5/§4.10).
func ExtractEnhanced(b *models.BacklinkSignal, agg *aggregator.Aggregate, pop PopulationStats) (ev EnhancedVector) {
	defer func() {
		if recover() != nil {
			ev = EnhancedVector{}
		}
	}()

	if agg == nil || agg.TotalPeers == 0 {
		return EnhancedVector{}
	}

	w7 := float64(agg.VelocityWindows["7d"]) / float64(agg.TotalPeers)
	w90 := float64(agg.VelocityWindows["90d"]) / float64(agg.TotalPeers)

	ev.TemporalClustering = w7
	ev.LinkStability = 1.0 - math.Abs(w7-w90)

	ipReuse := ipReuseRatio(b.IP, agg)
	registrarReuse := registrarReuseRatio(b.Registrar, agg)

	ev.ClusteringCoefficient = ipReuse * registrarReuse
	ev.NetworkDensity = (ipReuse + registrarReuse) / 2.0

	if b.DomainRank != nil {
		ev.RankZScore = zScore(*b.DomainRank, pop.RankMean, pop.RankStdev)
	}
	if b.DomainAge != nil {
		ev.AgeZScore = zScore(float64(*b.DomainAge), pop.AgeMean, pop.AgeStdev)
	}
	if b.SpamScore != nil {
		ev.SpamZScore = zScore(float64(*b.SpamScore), pop.SpamMean, pop.SpamStdev)
	}

	return ev
}

// enhancedBoost is one advisory threshold → probability bump pair.
type enhancedBoost struct {
	triggered bool
	amount    float64
}

// ApplyEnhancedBoosts adds the advisory temporal/graph/statistical bumps
// from spec.md §4.5 onto a base probability, capping the result at 0.99.
// Each independently-triggered threshold contributes once.
func ApplyEnhancedBoosts(baseProbability float64, ev EnhancedVector) float64 {
	boosts := []enhancedBoost{
		// Erratic, bursty acquisition (low stability) reads as a PBN buy.
		{triggered: ev.LinkStability < 0.3, amount: 0.10},
		// Many peers first-seen within the same week.
		{triggered: ev.TemporalClustering > 0.6, amount: 0.10},
		// IP and registrar reuse co-occur tightly — a single operator's footprint.
		{triggered: ev.ClusteringCoefficient > 0.5, amount: 0.12},
		{triggered: ev.NetworkDensity > 0.5, amount: 0.12},
		// Far younger than the rest of the batch.
		{triggered: ev.AgeZScore < -1.5, amount: 0.10},
		// Far more authoritative-ranked than the rest of the batch is itself
		// an outlier worth a small bump (PBNs sometimes seed one clean link).
		{triggered: ev.RankZScore < -1.5, amount: 0.10},
		// Spam score far above the batch's own average.
		{triggered: ev.SpamZScore > 1.5, amount: 0.15},
	}

	p := baseProbability
	for _, boost := range boosts {
		if boost.triggered {
			p += boost.amount
		}
	}

	if p > 0.99 {
		p = 0.99
	}
	return p
}
