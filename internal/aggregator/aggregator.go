// Package aggregator computes the single O(n) Network Aggregate pass that
// every per-backlink computation reads from for the rest of the request.
package aggregator

import (
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rawblock/pbn-detector/internal/models"
)

// velocityWindowDays are the cumulative lookback windows from spec.md §3/§4.2.
var velocityWindowDays = []int{7, 30, 90}

func windowKey(days int) string {
	switch days {
	case 7:
		return "7d"
	case 30:
		return "30d"
	case 90:
		return "90d"
	}
	return ""
}

// Aggregate is the read-only, request-scoped network state plus two
// bloom filters that let per-item rule evaluation skip a map lookup when
// an IP or registrar provably never repeats in the batch.
type Aggregate struct {
	models.NetworkAggregate

	ipSeenOnce        *bloom.BloomFilter
	registrarSeenOnce *bloom.BloomFilter
}

// MaybeSharedIP reports whether ip might appear more than once in the
// batch. A false result is certain (no false negatives); a true result
// still requires the exact IPCounts lookup to confirm.
func (a *Aggregate) MaybeSharedIP(ip string) bool {
	if ip == "" || a.ipSeenOnce == nil {
		return false
	}
	return a.ipSeenOnce.TestString(ip)
}

// MaybeSharedRegistrar is MaybeSharedIP for the registrar dimension.
func (a *Aggregate) MaybeSharedRegistrar(registrar string) bool {
	if registrar == "" || a.registrarSeenOnce == nil {
		return false
	}
	return a.registrarSeenOnce.TestString(registrar)
}

// Build performs the single O(n) pass over backlinks described in spec.md
// §4.1. now is the reference instant velocity windows are measured
// against; callers pass the same now through the whole request so the
// result is a pure function of (backlinks, now).
func Build(backlinks []models.BacklinkSignal, now time.Time) *Aggregate {
	n := len(backlinks)

	agg := &Aggregate{
		NetworkAggregate: models.NetworkAggregate{
			IPCounts:        make(map[string]int),
			RegistrarCounts: make(map[string]int),
			TotalPeers:      n,
			VelocityWindows: make(map[string]int, len(velocityWindowDays)),
		},
		// Sized generously relative to n; false-positive rate stays low
		// without needing an exact cardinality estimate up front.
		ipSeenOnce:        bloom.NewWithEstimates(uint(max(n, 1)), 0.01), //nolint:gosec // n is bounded by PBN_MAX_BACKLINKS
		registrarSeenOnce: bloom.NewWithEstimates(uint(max(n, 1)), 0.01), //nolint:gosec
	}

	for _, days := range velocityWindowDays {
		agg.VelocityWindows[windowKey(days)] = 0
	}

	for i := range backlinks {
		b := &backlinks[i]

		if b.IP != "" {
			if agg.IPCounts[b.IP] > 0 {
				agg.ipSeenOnce.AddString(b.IP)
			}
			agg.IPCounts[b.IP]++
		}
		if b.Registrar != "" {
			if agg.RegistrarCounts[b.Registrar] > 0 {
				agg.registrarSeenOnce.AddString(b.Registrar)
			}
			agg.RegistrarCounts[b.Registrar]++
		}

		if b.FirstSeen != nil {
			seen := b.FirstSeen.UTC()
			ageDays := now.Sub(seen).Hours() / 24
			for _, days := range velocityWindowDays {
				if ageDays <= float64(days) {
					agg.VelocityWindows[windowKey(days)]++
				}
			}
		}
	}

	return agg
}

