package similarity

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/rawblock/pbn-detector/internal/cache"
)

// lshCandidateThreshold is the batch size at which detection switches from
// brute-force all-pairs comparison to LSH candidate generation
// (spec.md §4.8).
const lshCandidateThreshold = 11

const signatureTTL = 2 * time.Hour

// DetectDuplicates returns the fraction of snippet pairs whose estimated
// Jaccard similarity meets threshold — the content_similarity_ratio the
// detector hands to every item's risk assembler (spec.md §3/§4.8).
//
// Below lshCandidateThreshold snippets, every pair is compared directly
// and the ratio is duplicate pairs over all pairs. At or above it, LSH
// band-bucketing limits comparison to candidate pairs only and the ratio
// is duplicate pairs over candidate pairs. Since non-candidate pairs are
// left out of the denominator, the two branches can give different
// ratios for the same snippets. The reference implementation's
// small-batch branch instead gated a single averaged similarity against
// the threshold, which we intentionally do not reproduce (see DESIGN.md).
func DetectDuplicates(snippets []string, threshold float64, store *cache.Cache) float64 {
	n := len(snippets)
	if n < 2 {
		return 0.0
	}

	signatures := make([]Signature, n)
	for i, s := range snippets {
		signatures[i] = signatureFor(s, store)
	}

	if n < lshCandidateThreshold {
		return bruteForceRatio(signatures, threshold)
	}
	return lshRatio(signatures, threshold)
}

func bruteForceRatio(sigs []Signature, threshold float64) float64 {
	totalPairs := 0
	duplicatePairs := 0
	for i := 0; i < len(sigs); i++ {
		for j := i + 1; j < len(sigs); j++ {
			totalPairs++
			if Jaccard(sigs[i], sigs[j]) >= threshold {
				duplicatePairs++
			}
		}
	}
	if totalPairs == 0 {
		return 0.0
	}
	return float64(duplicatePairs) / float64(totalPairs)
}

func lshRatio(sigs []Signature, threshold float64) float64 {
	index := NewLSH()
	for i, sig := range sigs {
		index.Insert(i, sig)
	}

	totalPairs := 0
	duplicatePairs := 0
	for i, sig := range sigs {
		for _, j := range index.Query(i, sig) {
			if j <= i {
				continue // each unordered pair counted once
			}
			totalPairs++
			if Jaccard(sig, sigs[j]) >= threshold {
				duplicatePairs++
			}
		}
	}
	if totalPairs == 0 {
		return 0.0
	}
	return float64(duplicatePairs) / float64(totalPairs)
}

// signatureFor returns text's MinHash signature, consulting store first.
// A nil store, a cache miss, or a corrupt cached entry all fall through
// to recomputing the signature directly — the cache is a pure
// accelerant (spec.md §4.8/§7).
func signatureFor(text string, store *cache.Cache) Signature {
	if store == nil || text == "" {
		return Build(text)
	}

	key := cacheKey(text)
	if raw, ok := store.Get(context.Background(), key); ok {
		if sig, ok := decodeSignature(raw); ok {
			return sig
		}
	}

	sig := Build(text)
	store.Set(context.Background(), key, encodeSignature(sig), signatureTTL)
	return sig
}

func cacheKey(text string) string {
	return "minhash:" + hexHash(text)
}

func hexHash(text string) string {
	h := baseHash(text)
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xF]
		h >>= 4
	}
	return string(buf)
}

func encodeSignature(sig Signature) []byte {
	buf := make([]byte, 8*numPermutations)
	for i, v := range sig {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func decodeSignature(raw []byte) (Signature, bool) {
	var sig Signature
	if len(raw) != 8*numPermutations {
		return sig, false
	}
	for i := range sig {
		sig[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return sig, true
}
