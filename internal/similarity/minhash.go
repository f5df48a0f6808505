// Package similarity implements the content-duplication signal from
// spec.md §4.8: MinHash signatures compared either exhaustively (small
// batches) or via LSH candidate generation (large batches).
package similarity

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const numPermutations = 128

// permutations are fixed, request-independent odd multipliers used to
// turn one base hash into numPermutations pseudo-independent hashes
// (the standard "universal hashing" trick used in place of storing 128
// real random permutation tables).
var permutations = buildPermutations()

func buildPermutations() [numPermutations]uint64 {
	var perms [numPermutations]uint64
	// A fixed odd-constant linear congruential stream. Deterministic across
	// runs (required — see spec.md §8's determinism invariant) and never
	// reseeded from wall-clock time.
	seed := uint64(0x9E3779B97F4A7C15)
	for i := range perms {
		seed = seed*6364136223846793005 + 1442695040888963407
		if seed%2 == 0 {
			seed++ // keep multipliers odd
		}
		perms[i] = seed
	}
	return perms
}

// Shingles splits text into whitespace-token 4-grams, matching the
// reference content-similarity service's shingling (spec.md §4.8).
func Shingles(text string, size int) []string {
	if text == "" {
		return nil
	}
	tokens := strings.Fields(text)
	if len(tokens) < size {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-size+1)
	for i := 0; i+size <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+size], " "))
	}
	return shingles
}

// Signature is a 128-dimensional MinHash sketch of one text's shingle set.
type Signature [numPermutations]uint64

// Build computes the MinHash signature for text's 4-gram shingles. An
// empty or too-short text yields a signature with every slot at the
// maximum uint64 value.
func Build(text string) Signature {
	var sig Signature
	for i := range sig {
		sig[i] = ^uint64(0)
	}

	shingles := Shingles(text, 4)
	for _, s := range shingles {
		base := baseHash(s)
		for i, mult := range permutations {
			h := base * mult
			if h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}

func baseHash(s string) uint64 {
	sum := blake2b.Sum256([]byte(s))
	return binary.LittleEndian.Uint64(sum[:8])
}

// Jaccard estimates the Jaccard similarity of two shingle sets from their
// MinHash signatures: the fraction of permutation slots that agree.
func Jaccard(a, b Signature) float64 {
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(numPermutations)
}
