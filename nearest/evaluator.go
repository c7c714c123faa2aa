// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package nearest answers k-closest queries over a fixed set of records.
//
// Each query computes every distance, finds the k-th smallest one with
// quickselect and then rescans the records in input order, keeping all of
// those at or below that boundary. The rescan alone decides membership, so
// the result does not depend on the pivot draws.
package nearest

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jcodagnone/closest/selection"
	"github.com/jcodagnone/closest/spatial"
	"go.uber.org/zap"
)

// Evaluator evaluates queries with a fixed distance unit.
type Evaluator struct {
	unit   spatial.Unit
	rnd    selection.Source
	logger *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithUnit sets the distance unit. Defaults to kilometers.
func WithUnit(u spatial.Unit) Option {
	return func(e *Evaluator) { e.unit = u }
}

// WithSource sets the pivot randomness. Defaults to selection.Global().
func WithSource(src selection.Source) Option {
	return func(e *Evaluator) { e.rnd = src }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		unit:   spatial.Kilometers,
		rnd:    selection.Global(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Unit returns the unit distances are computed in.
func (e *Evaluator) Unit() spatial.Unit {
	return e.unit
}

// Distances computes one entry per record, in input order.
func (e *Evaluator) Distances(records []Record, p spatial.Point) []DistanceEntry {
	entries := make([]DistanceEntry, len(records))
	for i := range records {
		entries[i] = DistanceEntry{
			Record:   &records[i],
			Distance: e.unit.Distance(p, records[i].Point),
			Index:    i,
		}
	}

	return entries
}

// Boundary returns the k-th smallest distance of entries. k must be in
// [1, len(entries)]. entries is not modified.
func (e *Evaluator) Boundary(entries []DistanceEntry, k int) float64 {
	work := slices.Clone(entries)
	kth := selection.Select(work, k, func(d DistanceEntry) float64 { return d.Distance }, e.rnd)

	return kth.Distance
}

// Evaluate returns the tie-inclusive k closest records to q.Point.
func (e *Evaluator) Evaluate(records []Record, q Query) ResultSet {
	rs := ResultSet{Query: q, Unit: e.unit, Neighbors: []Neighbor{}}

	entries := e.Distances(records, q.Point)
	k := min(max(q.K, 0), len(entries))
	if k == 0 {
		return rs
	}

	boundary := e.Boundary(entries, k)

	within := make([]DistanceEntry, 0, k)
	for _, entry := range entries {
		if entry.Distance <= boundary {
			within = append(within, entry)
		}
	}

	slices.SortFunc(within, func(a, b DistanceEntry) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Index, b.Index))
	})

	rs.Neighbors = make([]Neighbor, len(within))
	for i, entry := range within {
		rs.Neighbors[i] = Neighbor{Record: entry.Record, Distance: entry.Distance}
	}

	return rs
}

// Progress is called after each query of a batch.
type Progress func(done, total int)

// EvaluateAll evaluates queries sequentially in input order. A query that
// fails yields an empty ResultSet and the batch goes on. The batch stops
// between queries when ctx is done.
func (e *Evaluator) EvaluateAll(ctx context.Context, records []Record, queries []Query, progress Progress) ([]ResultSet, error) {
	results := make([]ResultSet, 0, len(queries))

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("evaluating query %d of %d: %w", i+1, len(queries), err)
		}

		rs, err := e.safeEvaluate(records, q)
		if err != nil {
			e.logger.Warn("query failed",
				zap.Int("query", i+1),
				zap.Float64("lat", q.Point.Lat),
				zap.Float64("lng", q.Point.Lng),
				zap.Int("k", q.K),
				zap.Error(err),
			)
		}

		results = append(results, rs)

		if progress != nil {
			progress(i+1, len(queries))
		}
	}

	e.logger.Debug("batch evaluated",
		zap.Int("queries", len(queries)),
		zap.Int("records", len(records)),
		zap.Stringer("unit", e.unit),
	)

	return results, nil
}

func (e *Evaluator) safeEvaluate(records []Record, q Query) (rs ResultSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			rs = ResultSet{Query: q, Unit: e.unit, Neighbors: []Neighbor{}}
			err = fmt.Errorf("query (%f,%f) k=%d: %v", q.Point.Lat, q.Point.Lng, q.K, r)
		}
	}()

	return e.Evaluate(records, q), nil
}
