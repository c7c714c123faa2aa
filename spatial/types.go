// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/uber/h3-go/v4"
)

// ErrNotFinite is returned for NaN or infinite coordinates.
var ErrNotFinite = errors.New("coordinate is not a finite number")

// Point represents a geographical point with latitude and longitude in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns the point as WKT, longitude first, without losing precision.
func (p Point) String() string {
	return "POINT (" + strconv.FormatFloat(p.Lng, 'g', -1, 64) + " " +
		strconv.FormatFloat(p.Lat, 'g', -1, 64) + ")"
}

// Valid reports whether the latitude is in [-90, 90] and the longitude in [-180, 180].
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		return p.parseWKT(string(v))
	case string:
		return p.parseWKT(v)
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// parseWKT accepts "POINT (lng lat)" and "POINT(lng lat)".
func (p *Point) parseWKT(s string) error {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "POINT")
	if ok {
		body, ok = strings.CutPrefix(strings.TrimSpace(body), "(")
	}

	if ok {
		body, ok = strings.CutSuffix(body, ")")
	}

	fields := strings.Fields(body)
	if !ok || len(fields) != 2 {
		return fmt.Errorf("spatial: invalid point %q", s)
	}

	lng, err := ParseCoordinate(fields[0])
	if err != nil {
		return fmt.Errorf("spatial: point %q: %w", s, err)
	}

	lat, err := ParseCoordinate(fields[1])
	if err != nil {
		return fmt.Errorf("spatial: point %q: %w", s, err)
	}

	p.Lat, p.Lng = lat, lng

	return nil
}

// ParseCoordinate parses a decimal degree value. NaN and infinities are
// rejected with ErrNotFinite.
func ParseCoordinate(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}

	return f, nil
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("spatial: h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}

// centralAngle returns the great-circle angle in radians between p and q.
func centralAngle(p, q Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLng := (q.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// rounding can push a slightly outside [0, 1] near antipodes
	a = math.Min(1, math.Max(0, a))

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
