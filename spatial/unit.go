// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"strings"
)

// Unit is the length unit every distance of a run is expressed in.
type Unit int

const (
	// Kilometers uses a mean Earth radius of 6371 km.
	Kilometers Unit = iota
	// Miles uses a mean Earth radius of 3958.8 mi.
	Miles
)

// Radius returns the Earth radius expressed in the unit.
func (u Unit) Radius() float64 {
	if u == Miles {
		return 3958.8
	}

	return 6371.0
}

// Symbol returns the short label used when printing distances.
func (u Unit) Symbol() string {
	if u == Miles {
		return "mi"
	}

	return "km"
}

func (u Unit) String() string {
	if u == Miles {
		return "miles"
	}

	return "kilometers"
}

// Distance returns the great-circle distance between p and q using the
// Haversine formula. It is symmetric, zero for p == q and finite for every
// input, including antipodal and out-of-range coordinates.
func (u Unit) Distance(p, q Point) float64 {
	return u.Radius() * centralAngle(p, q)
}

// ParseUnit parses km, kilometers, mi or miles (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "km", "kilometers", "kilometres":
		return Kilometers, nil
	case "mi", "miles":
		return Miles, nil
	default:
		return Kilometers, fmt.Errorf("spatial: unknown unit %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.Symbol()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}

	*u = parsed

	return nil
}
