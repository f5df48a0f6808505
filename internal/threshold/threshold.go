// Package threshold implements the adaptive high/medium risk cutoffs
// from spec.md §4.7: base thresholds shifted by batch size and, when
// supplied, by the requester's domain context.
package threshold

import "github.com/rawblock/pbn-detector/internal/models"

// Thresholds is a high/medium risk cutoff pair.
type Thresholds struct {
	High   float64
	Medium float64
}

// Classify maps a probability to a risk level using t.
func (t Thresholds) Classify(probability float64) string {
	switch {
	case probability >= t.High:
		return models.RiskHigh
	case probability >= t.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Adjust computes the adaptive thresholds for one request, starting from
// base and shifting first by batch size, then by domain context — in
// that order, mirroring the reference implementation's adjustment
// sequence (spec.md §4.7).
func Adjust(base Thresholds, totalBacklinks int, domainContext *models.DomainContext) Thresholds {
	t := base

	switch {
	case totalBacklinks > 10000:
		t.High = minf(t.High+0.05, 0.95)
		t.Medium = minf(t.Medium+0.05, 0.85)
	case totalBacklinks > 5000:
		t.High = minf(t.High+0.03, 0.90)
		t.Medium = minf(t.Medium+0.03, 0.80)
	case totalBacklinks < 100:
		t.High = maxf(t.High-0.05, 0.60)
		t.Medium = maxf(t.Medium-0.05, 0.40)
	}

	if domainContext != nil {
		if domainContext.DomainAuthority != nil {
			switch {
			case *domainContext.DomainAuthority > 80:
				t.High = minf(t.High+0.03, 0.95)
				t.Medium = minf(t.Medium+0.03, 0.85)
			case *domainContext.DomainAuthority < 30:
				t.High = maxf(t.High-0.03, 0.60)
				t.Medium = maxf(t.Medium-0.03, 0.40)
			}
		}
		if domainContext.HistoricalPBNRate != nil {
			switch {
			case *domainContext.HistoricalPBNRate > 0.3:
				t.High = minf(t.High+0.05, 0.95)
				t.Medium = minf(t.Medium+0.05, 0.85)
			case *domainContext.HistoricalPBNRate < 0.1:
				t.High = maxf(t.High-0.03, 0.60)
				t.Medium = maxf(t.Medium-0.03, 0.40)
			}
		}
	}

	return t
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
