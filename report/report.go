// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package report prints result sets.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jcodagnone/closest/nearest"
	"github.com/jcodagnone/closest/utils/textutils"
)

// Formatter writes result sets, one per query, in query order.
type Formatter interface {
	Write(w io.Writer, results []nearest.ResultSet) error
}

// New returns the formatter named by format: "text" or "json".
func New(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return &TextFormatter{Decimals: 3}, nil
	case "json":
		return &JSONFormatter{Indent: "  "}, nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", format)
	}
}

// TextFormatter prints a heading per query followed by one line per store.
type TextFormatter struct {
	Decimals int
}

func formatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (f *TextFormatter) Write(w io.Writer, results []nearest.ResultSet) error {
	for _, rs := range results {
		if _, err := fmt.Fprintf(w, "The %d closest Stores to (%s,%s):\n",
			rs.Query.K,
			formatCoordinate(rs.Query.Point.Lat),
			formatCoordinate(rs.Query.Point.Lng),
		); err != nil {
			return err
		}

		for _, n := range rs.Neighbors {
			r := n.Record
			if _, err := fmt.Fprintf(w, "Store #%s. %s, %s, %s, %s. - %s %s)\n",
				r.ID, r.Address, r.City, r.State, r.Zip,
				textutils.FormatFloat(n.Distance, f.Decimals),
				rs.Unit.Symbol(),
			); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

// JSONFormatter writes {"results": [...]}.
type JSONFormatter struct {
	Indent string
}

func (f *JSONFormatter) Write(w io.Writer, results []nearest.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)

	if results == nil {
		results = []nearest.ResultSet{}
	}

	return enc.Encode(struct {
		Results []nearest.ResultSet `json:"results"`
	}{Results: results})
}
