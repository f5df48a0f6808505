// Package features turns a BacklinkSignal plus the shared network
// aggregate into the fixed-length numeric vectors the classifiers read.
package features

import (
	"regexp"
	"strings"

	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/models"
)

// Vector is the 11-dimensional feature vector, in the order fixed by
// spec.md §4.2. Index constants below document the order for consumers
// that need positional access (the lightweight classifier, mainly).
type Vector [11]float64

const (
	IdxAnchorLength = iota
	IdxMoneyAnchorScore
	IdxDomainRank
	IdxDofollow
	IdxDomainAgeDays
	IdxIPReuseRatio
	IdxRegistrarReuseRatio
	IdxLinkVelocity
	IdxDomainNameSuspicion
	IdxHostingPattern
	IdxSpamScoreNormalized
)

var (
	highRiskAnchorWords = []string{"casino", "poker", "adult", "viagra", "cialis", "loan", "debt", "forex", "crypto", "bitcoin"}
	mediumRiskAnchorWords = []string{"buy", "cheap", "discount", "free", "click here", "visit now", "order now"}
	punctuationPatterns   = []string{"!!!", "$$$", "www.", "http"}

	suspiciousDomainPattern = regexp.MustCompile(`[a-z]{3,}\d{3,}`)
)

// Extract builds the 11-dimensional feature vector for one backlink,
// reading the shared Network Aggregate for the reuse/velocity terms.
func Extract(b *models.BacklinkSignal, agg *aggregator.Aggregate) Vector {
	var v Vector

	v[IdxAnchorLength] = float64(len(b.Anchor))
	v[IdxMoneyAnchorScore] = moneyAnchorScore(b.Anchor)
	v[IdxDomainRank] = b.RankOrZero()
	if b.IsDofollow() {
		v[IdxDofollow] = 1
	}
	v[IdxDomainAgeDays] = float64(b.AgeOrZero())
	v[IdxIPReuseRatio] = ipReuseRatio(b.IP, agg)
	v[IdxRegistrarReuseRatio] = registrarReuseRatio(b.Registrar, agg)
	v[IdxLinkVelocity] = linkVelocity(b, agg)
	v[IdxDomainNameSuspicion] = domainNameSuspicion(b.DomainFrom)
	// Reserved for a future distinct hosting-provider signal; for now it
	// rides on IP reuse as its proxy, per spec.md §4.2.
	v[IdxHostingPattern] = v[IdxIPReuseRatio]
	v[IdxSpamScoreNormalized] = spamScoreNormalized(b.SpamScoreOrNil())

	return v
}

func moneyAnchorScore(anchor string) float64 {
	if anchor == "" {
		return 0.0
	}
	lower := strings.ToLower(anchor)

	for _, w := range highRiskAnchorWords {
		if strings.Contains(lower, w) {
			return 1.0
		}
	}
	for _, w := range mediumRiskAnchorWords {
		if strings.Contains(lower, w) {
			return 0.6
		}
	}
	for _, p := range punctuationPatterns {
		if strings.Contains(lower, p) {
			return 0.4
		}
	}
	if len(anchor) > 5 && anchor == strings.ToUpper(anchor) {
		return 0.3
	}
	return 0.0
}

func ipReuseRatio(ip string, agg *aggregator.Aggregate) float64 {
	if ip == "" || agg.TotalPeers == 0 {
		return 0.0
	}
	return float64(agg.IPCounts[ip]) / float64(agg.TotalPeers)
}

func registrarReuseRatio(registrar string, agg *aggregator.Aggregate) float64 {
	if registrar == "" || agg.TotalPeers == 0 {
		return 0.0
	}
	return float64(agg.RegistrarCounts[registrar]) / float64(agg.TotalPeers)
}

func linkVelocity(b *models.BacklinkSignal, agg *aggregator.Aggregate) float64 {
	if b.FirstSeen == nil || agg.TotalPeers == 0 {
		return 0.0
	}
	w7 := float64(agg.VelocityWindows["7d"]) / float64(agg.TotalPeers)
	w30 := float64(agg.VelocityWindows["30d"]) / float64(agg.TotalPeers)
	w90 := float64(agg.VelocityWindows["90d"]) / float64(agg.TotalPeers)
	return 0.5*w7 + 0.3*w30 + 0.2*w90
}

func domainNameSuspicion(domain string) float64 {
	if domain == "" {
		return 0.0
	}
	lower := strings.ToLower(domain)
	score := 0.0

	if suspiciousDomainPattern.MatchString(lower) {
		score += 0.4
	}

	digits := 0
	for _, c := range lower {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if len(lower) > 0 && float64(digits)/float64(len(lower)) > 0.3 {
		score += 0.3
	}

	if len(lower) < 6 || len(lower) > 30 {
		score += 0.2
	}

	if strings.Count(lower, "-") > 2 {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func spamScoreNormalized(spamScore *int) float64 {
	if spamScore == nil {
		return 0.5
	}
	v := float64(*spamScore) / 100.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
