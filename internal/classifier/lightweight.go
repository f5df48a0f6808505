package classifier

import (
	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/models"
)

// Lightweight is the weighted-scorecard classifier from spec.md §4.4: it
// needs no trained artifact and is always available, so it also serves as
// the Learned classifier's fallback when no model is loaded or a
// prediction fails.
type Lightweight struct{}

var weights = map[string]float64{
	"domain_rank":      0.14,
	"domain_age":       0.14,
	"ip_reuse":         0.18,
	"registrar_reuse":  0.14,
	"link_velocity":    0.13,
	"anchor_quality":   0.12,
	"dofollow":         0.05,
	"safe_browsing":    0.08,
}

// PredictProba implements Classifier.
func (Lightweight) PredictProba(v features.Vector, b *models.BacklinkSignal) float64 {
	domainRank := v[features.IdxDomainRank]
	dofollow := v[features.IdxDofollow]
	domainAge := v[features.IdxDomainAgeDays]
	ipReuse := v[features.IdxIPReuseRatio]
	registrarReuse := v[features.IdxRegistrarReuseRatio]
	linkVelocity := v[features.IdxLinkVelocity]
	moneyAnchor := v[features.IdxMoneyAnchorScore]
	anchorLength := v[features.IdxAnchorLength]
	domainNameSuspicious := v[features.IdxDomainNameSuspicion]
	hostingPattern := v[features.IdxHostingPattern]
	spamScoreNormalized := v[features.IdxSpamScoreNormalized]

	scores := map[string]float64{
		"domain_rank":     scoreDomainRank(domainRank),
		"domain_age":      scoreDomainAge(domainAge),
		"ip_reuse":        scoreIPReuse(ipReuse),
		"registrar_reuse": scoreRegistrarReuse(registrarReuse),
		"link_velocity":   scoreLinkVelocity(linkVelocity),
		"anchor_quality":  scoreAnchorQuality(moneyAnchor, anchorLength),
		"dofollow":        scoreDofollow(dofollow),
		"safe_browsing":   scoreSafeBrowsing(b),
	}

	base := 0.0
	for key, w := range weights {
		base += scores[key] * w
	}
	base += domainNameSuspicious * 0.08
	base += hostingPattern * 0.07
	base += spamScoreNormalized * 0.20

	boosts := compositeSignals(domainRank, domainAge, ipReuse, registrarReuse, linkVelocity, moneyAnchor, domainNameSuspicious, spamScoreNormalized)
	if boosts.highRiskNetwork {
		base *= 1.2
	}
	if boosts.newDomainCluster {
		base *= 1.15
	}
	if boosts.spamNetwork {
		base *= 1.25
	}

	switch {
	case spamScoreNormalized > 0.7:
		base += 0.15
	case spamScoreNormalized > 0.5:
		base += 0.10
	}
	switch {
	case domainRank < 10:
		base += 0.10
	case domainRank < 50:
		base += 0.05
	}

	return clamp01(base)
}

// ModelVersion implements Classifier.
func (Lightweight) ModelVersion() string { return models.ModelVersionLightweight }

// Loaded implements Classifier. The scorecard has no "unloaded" state — it
// always scores from its weight table.
func (Lightweight) Loaded() bool { return true }

func scoreDomainRank(rank float64) float64 {
	switch {
	case rank <= 0:
		return 0.5
	case rank < 100:
		return 0.9
	case rank < 500:
		return 0.6
	case rank < 1000:
		return 0.3
	default:
		return 0.1
	}
}

func scoreDomainAge(age float64) float64 {
	switch {
	case age <= 0:
		return 0.5
	case age < 365:
		return 0.9
	case age < 1095:
		return 0.6
	case age < 3650:
		return 0.3
	default:
		return 0.1
	}
}

func scoreIPReuse(ratio float64) float64 {
	switch {
	case ratio >= 0.3:
		return 0.9
	case ratio >= 0.2:
		return 0.6
	case ratio >= 0.1:
		return 0.3
	default:
		return 0.1
	}
}

func scoreRegistrarReuse(ratio float64) float64 {
	switch {
	case ratio >= 0.3:
		return 0.8
	case ratio >= 0.2:
		return 0.5
	case ratio >= 0.1:
		return 0.3
	default:
		return 0.1
	}
}

func scoreLinkVelocity(velocity float64) float64 {
	switch {
	case velocity >= 0.5:
		return 0.8
	case velocity >= 0.3:
		return 0.5
	case velocity >= 0.1:
		return 0.3
	default:
		return 0.1
	}
}

func scoreAnchorQuality(moneyAnchor, anchorLength float64) float64 {
	switch {
	case moneyAnchor > 0:
		return 0.9
	case anchorLength < 5:
		return 0.6
	case anchorLength > 100:
		return 0.4
	default:
		return 0.2
	}
}

func scoreDofollow(dofollow float64) float64 {
	if dofollow > 0 {
		return 0.6
	}
	return 0.3
}

func scoreSafeBrowsing(b *models.BacklinkSignal) float64 {
	if b == nil {
		return 0.5
	}
	switch b.SafeBrowsingStatus {
	case "flagged":
		return 0.95
	case "clean":
		return 0.1
	default:
		return 0.5
	}
}

type compositeBoosts struct {
	highRiskNetwork  bool
	newDomainCluster bool
	spamNetwork      bool
}

// compositeSignals mirrors the scorecard's own composite-pattern boosts —
// distinct from, and evaluated independently of, the rule engine's
// chaining multipliers in internal/rules.
func compositeSignals(domainRank, domainAge, ipReuse, registrarReuse, linkVelocity, moneyAnchor, domainNameSuspicious, spamScore float64) compositeBoosts {
	var b compositeBoosts

	if domainRank < 500 && (ipReuse > 0.3 || registrarReuse > 0.3) {
		b.highRiskNetwork = true
	}
	if domainAge < 365 && (ipReuse > 0.2 || registrarReuse > 0.2) && linkVelocity > 0.4 {
		b.newDomainCluster = true
	}
	if moneyAnchor > 0.5 && (ipReuse > 0.2 || registrarReuse > 0.2) && domainNameSuspicious > 0.5 {
		b.spamNetwork = true
	}
	if spamScore > 0.6 && (ipReuse > 0.2 || registrarReuse > 0.2) {
		b.spamNetwork = true
	}
	if spamScore > 0.8 {
		b.spamNetwork = true
	}

	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
