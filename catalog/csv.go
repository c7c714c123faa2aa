// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog supplies records and queries to the evaluator: it parses
// delimited store and query files and keeps records in a DuckDB catalog.
package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jcodagnone/closest/nearest"
	"github.com/jcodagnone/closest/spatial"
	"github.com/jcodagnone/closest/utils/textutils"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	recordFields = 7 // id,address,city,state,zip,lat,lng
	queryFields  = 3 // lat,lng,k
)

var errFieldCount = errors.New("missing fields")

// Stats counts the rows seen while reading a file.
type Stats struct {
	Rows    int  `json:"rows"`
	Kept    int  `json:"kept"`
	Skipped int  `json:"skipped"`
	Header  bool `json:"header"`
}

// Merge adds o to s.
func (s *Stats) Merge(o Stats) {
	s.Rows += o.Rows
	s.Kept += o.Kept
	s.Skipped += o.Skipped
	s.Header = s.Header || o.Header
}

// Reader parses store and query files. Malformed rows are skipped and
// counted, never returned.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a Reader. A nil logger discards skip notices.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reader{logger: logger}
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	return reader
}

// isHeader reports whether row looks like a column header line.
func isHeader(row []string, names ...string) bool {
	if len(row) == 0 {
		return false
	}

	first := textutils.LowerASCIIFolding(row[0])
	for _, name := range names {
		if first == name {
			return true
		}
	}

	return false
}

func parseRecord(row []string, source string) (nearest.Record, error) {
	if len(row) < recordFields {
		return nearest.Record{}, errFieldCount
	}

	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	if row[0] == "" {
		return nearest.Record{}, errors.New("empty id")
	}

	if _, err := strconv.ParseFloat(row[4], 64); err != nil {
		return nearest.Record{}, eris.Wrapf(err, "zip %q", row[4])
	}

	lat, err := spatial.ParseCoordinate(row[5])
	if err != nil {
		return nearest.Record{}, eris.Wrapf(err, "latitude %q", row[5])
	}

	lng, err := spatial.ParseCoordinate(row[6])
	if err != nil {
		return nearest.Record{}, eris.Wrapf(err, "longitude %q", row[6])
	}

	return nearest.Record{
		ID:      row[0],
		Address: row[1],
		City:    row[2],
		State:   row[3],
		Zip:     row[4],
		Source:  source,
		Point:   spatial.Point{Lat: lat, Lng: lng},
	}, nil
}

func parseQuery(row []string) (nearest.Query, error) {
	if len(row) < queryFields {
		return nearest.Query{}, errFieldCount
	}

	lat, err := spatial.ParseCoordinate(row[0])
	if err != nil {
		return nearest.Query{}, eris.Wrapf(err, "latitude %q", row[0])
	}

	lng, err := spatial.ParseCoordinate(row[1])
	if err != nil {
		return nearest.Query{}, eris.Wrapf(err, "longitude %q", row[1])
	}

	k, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return nearest.Query{}, eris.Wrapf(err, "count %q", row[2])
	}

	return nearest.Query{Point: spatial.Point{Lat: lat, Lng: lng}, K: k}, nil
}

// each feeds every row of r to fn, handling header detection and skip
// accounting. fn returns an error when the row is malformed.
func (rd *Reader) each(r io.Reader, source string, headers []string, fn func(row []string) error) (Stats, error) {
	var stats Stats

	reader := newCSVReader(r)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Rows++
				stats.Skipped++
				rd.logger.Debug("skipping unreadable row", zap.String("source", source), zap.Error(err))

				continue
			}

			return stats, eris.Wrapf(err, "catalog: read %s", source)
		}

		stats.Rows++

		if err := fn(row); err != nil {
			if stats.Rows == 1 && isHeader(row, headers...) {
				stats.Header = true

				continue
			}

			stats.Skipped++
			line, _ := reader.FieldPos(0)
			rd.logger.Debug("skipping malformed row",
				zap.String("source", source),
				zap.Int("line", line),
				zap.Error(err),
			)

			continue
		}

		stats.Kept++
	}
}

// ReadRecords parses id,address,city,state,zip,lat,lng rows. source tags
// every record (usually the file name).
func (rd *Reader) ReadRecords(r io.Reader, source string) ([]nearest.Record, Stats, error) {
	var records []nearest.Record

	stats, err := rd.each(r, source, []string{"id", "store", "store id", "storeid"}, func(row []string) error {
		rec, err := parseRecord(row, source)
		if err != nil {
			return err
		}

		if !rec.Point.Valid() {
			rd.logger.Debug("record outside valid coordinate ranges",
				zap.String("source", source),
				zap.String("id", rec.ID),
				zap.Stringer("point", rec.Point),
			)
		}

		records = append(records, rec)

		return nil
	})

	return records, stats, err
}

// ReadQueries parses lat,lng,k rows.
func (rd *Reader) ReadQueries(r io.Reader, source string) ([]nearest.Query, Stats, error) {
	var queries []nearest.Query

	stats, err := rd.each(r, source, []string{"lat", "latitude"}, func(row []string) error {
		q, err := parseQuery(row)
		if err != nil {
			return err
		}

		queries = append(queries, q)

		return nil
	})

	return queries, stats, err
}

// LoadRecordFiles reads store files in order and concatenates their records.
func (rd *Reader) LoadRecordFiles(paths ...string) ([]nearest.Record, Stats, error) {
	var (
		all   []nearest.Record
		total Stats
	)

	for _, path := range paths {
		f, err := os.Open(path) // #nosec G304 - path is provided by the operator
		if err != nil {
			return nil, total, eris.Wrapf(err, "catalog: open records %s", path)
		}

		records, stats, err := rd.ReadRecords(f, filepath.Base(path))
		_ = f.Close()

		if err != nil {
			return nil, total, err
		}

		rd.logger.Info("records loaded",
			zap.String("file", path),
			zap.Int("kept", stats.Kept),
			zap.Int("skipped", stats.Skipped),
		)

		all = append(all, records...)
		total.Merge(stats)
	}

	return all, total, nil
}

// LoadQueryFile reads a query file.
func (rd *Reader) LoadQueryFile(path string) ([]nearest.Query, Stats, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, Stats{}, eris.Wrapf(err, "catalog: open queries %s", path)
	}
	defer f.Close()

	queries, stats, err := rd.ReadQueries(f, filepath.Base(path))
	if err != nil {
		return nil, stats, err
	}

	rd.logger.Info("queries loaded",
		zap.String("file", path),
		zap.Int("kept", stats.Kept),
		zap.Int("skipped", stats.Skipped),
	)

	return queries, stats, nil
}
