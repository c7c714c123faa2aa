// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package selection finds order statistics with randomized quickselect.
//
// Select places the entry of a given rank without sorting the whole slice,
// in expected linear time. The slice is reordered in place, so callers that
// need the original order must pass a copy.
package selection

import (
	"math/rand/v2"
)

// Source draws pivot indexes. *rand.Rand satisfies it.
type Source interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// NewSource returns a deterministic source for the given seed. The returned
// source must not be shared between goroutines.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Global returns a source backed by the top-level math/rand/v2 generator,
// safe for concurrent use.
func Global() Source {
	return globalSource{}
}

// Select returns the entry holding the k-th smallest key (1-indexed), as if
// entries were sorted ascending by key and indexed at k-1.
//
// k must be in [1, len(entries)]; callers clamp it first. Entries with equal
// keys may be returned in any grouping: only the key of the result is
// defined, not which of several equal entries it is.
func Select[E any](entries []E, k int, key func(E) float64, rnd Source) E {
	lo, hi := 0, len(entries)-1

	for lo < hi {
		p := partition(entries, lo, hi, lo+rnd.IntN(hi-lo+1), key)

		rank := p - lo + 1
		switch {
		case k == rank:
			return entries[p]
		case k < rank:
			hi = p - 1
		default:
			lo = p + 1
			k -= rank
		}
	}

	return entries[lo]
}

// partition moves the pivot to hi, then every entry strictly less than it
// to the front of [lo, hi], and finally the pivot right after them. It
// returns the pivot's final index.
func partition[E any](entries []E, lo, hi, pivot int, key func(E) float64) int {
	entries[pivot], entries[hi] = entries[hi], entries[pivot]
	pk := key(entries[hi])

	store := lo
	for i := lo; i < hi; i++ {
		if key(entries[i]) < pk {
			entries[i], entries[store] = entries[store], entries[i]
			store++
		}
	}

	entries[store], entries[hi] = entries[hi], entries[store]

	return store
}
