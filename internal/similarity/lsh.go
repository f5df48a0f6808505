package similarity

import (
	"encoding/binary"
)

const (
	lshBands = 32
	lshRows  = numPermutations / lshBands
)

// LSH buckets MinHash signatures by band so that candidate near-duplicate
// pairs can be found without comparing every pair directly — the same
// trick the reference implementation's LSH index uses, reimplemented
// in-process instead of via an external library (spec.md §4.8).
type LSH struct {
	buckets []map[uint64][]int
	sigs    []Signature
}

// NewLSH returns an empty index.
func NewLSH() *LSH {
	buckets := make([]map[uint64][]int, lshBands)
	for i := range buckets {
		buckets[i] = make(map[uint64][]int)
	}
	return &LSH{buckets: buckets}
}

// Insert adds sig under docID in every band's bucket map.
func (l *LSH) Insert(docID int, sig Signature) {
	if docID >= len(l.sigs) {
		grown := make([]Signature, docID+1)
		copy(grown, l.sigs)
		l.sigs = grown
	}
	l.sigs[docID] = sig

	for band := 0; band < lshBands; band++ {
		key := bandKey(sig, band)
		l.buckets[band][key] = append(l.buckets[band][key], docID)
	}
}

// Query returns the distinct candidate document IDs that share at least
// one band bucket with sig, excluding self.
func (l *LSH) Query(self int, sig Signature) []int {
	seen := make(map[int]bool)
	for band := 0; band < lshBands; band++ {
		key := bandKey(sig, band)
		for _, docID := range l.buckets[band][key] {
			if docID != self {
				seen[docID] = true
			}
		}
	}
	candidates := make([]int, 0, len(seen))
	for docID := range seen {
		candidates = append(candidates, docID)
	}
	return candidates
}

func bandKey(sig Signature, band int) uint64 {
	start := band * lshRows
	var buf [8 * lshRows]byte
	for i := 0; i < lshRows; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], sig[start+i])
	}
	sum := baseHashBytes(buf[:])
	return sum
}

func baseHashBytes(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
