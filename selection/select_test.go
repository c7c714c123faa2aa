// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

type item struct {
	name string
	key  float64
}

func itemKey(i item) float64 { return i.key }

func identity(v float64) float64 { return v }

func TestSelect_MatchesSort(t *testing.T) {
	gen := rand.New(rand.NewPCG(1, 2))

	shapes := map[string]func(n int) []float64{
		"uniform": func(n int) []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = gen.Float64() * 1000
			}

			return v
		},
		"few distinct": func(n int) []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = float64(gen.IntN(3))
			}

			return v
		},
		"all equal": func(n int) []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = 7
			}

			return v
		},
		"ascending": func(n int) []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = float64(i)
			}

			return v
		},
		"descending": func(n int) []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = float64(n - i)
			}

			return v
		},
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{1, 2, 3, 5, 17, 100} {
				values := shape(n)
				sorted := slices.Clone(values)
				slices.Sort(sorted)

				for k := 1; k <= n; k++ {
					for seed := uint64(0); seed < 3; seed++ {
						work := slices.Clone(values)
						got := Select(work, k, identity, NewSource(seed))
						if got != sorted[k-1] {
							t.Fatalf("n=%d k=%d seed=%d: got %v, want %v", n, k, seed, got, sorted[k-1])
						}
					}
				}
			}
		})
	}
}

func TestSelect_ReordersOnlyByPermutation(t *testing.T) {
	items := []item{{"a", 1}, {"b", 5}, {"c", 3}, {"d", 3}, {"e", 8}}
	work := slices.Clone(items)

	got := Select(work, 3, itemKey, NewSource(42))
	assert.InDelta(t, 3.0, got.key, 0)

	less := func(a, b item) bool { return a.name < b.name }
	if diff := cmp.Diff(items, work, cmp.AllowUnexported(item{}), cmpopts.SortSlices(less)); diff != "" {
		t.Errorf("entries are not a permutation of the input (-want +got):\n%s", diff)
	}
}

func TestSelect_TiesReturnBoundaryKey(t *testing.T) {
	items := []item{{"a", 1}, {"b", 5}, {"c", 3}, {"d", 3}, {"e", 8}}

	tests := []struct {
		k    int
		want float64
	}{
		{k: 1, want: 1},
		{k: 2, want: 3},
		{k: 3, want: 3},
		{k: 4, want: 5},
		{k: 5, want: 8},
	}

	for _, tt := range tests {
		for seed := uint64(0); seed < 20; seed++ {
			got := Select(slices.Clone(items), tt.k, itemKey, NewSource(seed))
			assert.InDelta(t, tt.want, got.key, 0, "k=%d seed=%d", tt.k, seed)
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	items := make([]item, 50)
	for i := range items {
		items[i] = item{name: string(rune('A' + i%26)), key: float64(i % 7)}
	}

	a := slices.Clone(items)
	b := slices.Clone(items)
	Select(a, 20, itemKey, NewSource(9))
	Select(b, 20, itemKey, NewSource(9))

	assert.Equal(t, a, b)
}

func TestSelect_GlobalSource(t *testing.T) {
	values := []float64{9, 4, 7, 1, 4, 2}
	assert.InDelta(t, 4.0, Select(slices.Clone(values), 3, identity, Global()), 0)
	assert.InDelta(t, 9.0, Select(slices.Clone(values), 6, identity, Global()), 0)
}

type countingSource struct {
	calls int
	src   Source
}

func (c *countingSource) IntN(n int) int {
	c.calls++

	return c.src.IntN(n)
}

func TestSelect_SingleElementDrawsNoPivot(t *testing.T) {
	src := &countingSource{src: NewSource(1)}
	got := Select([]float64{3.5}, 1, identity, src)

	assert.InDelta(t, 3.5, got, 0)
	assert.Zero(t, src.calls)
}

func BenchmarkSelect(b *testing.B) {
	gen := rand.New(rand.NewPCG(3, 4))
	values := make([]float64, 10_000)

	for i := range values {
		values[i] = gen.Float64()
	}

	work := make([]float64, len(values))
	src := NewSource(5)

	for b.Loop() {
		copy(work, values)
		Select(work, len(work)/2, identity, src)
	}
}
