// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package nearest

import (
	"github.com/jcodagnone/closest/spatial"
)

// Record is a located point of interest. Records are never mutated once
// loaded and are shared read-only by every query.
type Record struct {
	ID      string        `json:"id"`
	Address string        `json:"address"`
	City    string        `json:"city"`
	State   string        `json:"state"`
	Zip     string        `json:"zip"`
	Source  string        `json:"source,omitempty"` // file or table the record came from
	Point   spatial.Point `json:"point"`
}

// Query asks for the K records closest to Point.
type Query struct {
	Point spatial.Point `json:"point"`
	K     int           `json:"k"`
}

// DistanceEntry pairs a record with its distance to one query point.
type DistanceEntry struct {
	Record   *Record
	Distance float64
	Index    int // position of Record in the input collection
}

// Neighbor is one member of a ResultSet.
type Neighbor struct {
	Record   *Record `json:"record"`
	Distance float64 `json:"distance"`
}

// ResultSet holds, ascending by distance, every record whose distance is
// less than or equal to the k-th smallest distance of the query. It may be
// longer than K when several records tie at the boundary.
type ResultSet struct {
	Query     Query        `json:"query"`
	Unit      spatial.Unit `json:"unit"`
	Neighbors []Neighbor   `json:"neighbors"`
}

// Len returns the number of neighbors.
func (rs ResultSet) Len() int {
	return len(rs.Neighbors)
}

// Boundary returns the largest distance in the set, or 0 if it is empty.
func (rs ResultSet) Boundary() float64 {
	if len(rs.Neighbors) == 0 {
		return 0
	}

	return rs.Neighbors[len(rs.Neighbors)-1].Distance
}
