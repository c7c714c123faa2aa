// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"database/sql"

	"github.com/jcodagnone/closest/nearest"
	"github.com/rotisserie/eris"
)

// cellResolution is the H3 resolution stored alongside each record
// (about 5 km² cells).
const cellResolution = 7

// Repository persists the record catalog.
type Repository interface {
	// CreateSchema creates the records table
	CreateSchema() error

	// BulkInsertRecords appends records, preserving their order
	BulkInsertRecords(records []nearest.Record) error

	// ListRecords returns every record in insertion order
	ListRecords() ([]nearest.Record, error)

	// CountRecords returns the total number of records
	CountRecords() (int, error)

	// CountBySource returns the number of records per source
	CountBySource() (map[string]int, error)

	// Truncate removes every record
	Truncate() error
}

type sqlRecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a DuckDB backed record repository.
func NewRecordRepository(db *sql.DB) Repository {
	return &sqlRecordRepository{db: db}
}

func (r *sqlRecordRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS records_seq START 1;

		CREATE TABLE IF NOT EXISTS records (
			seq BIGINT PRIMARY KEY DEFAULT nextval('records_seq'),
			id VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			city VARCHAR NOT NULL,
			state VARCHAR NOT NULL,
			zip VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			location VARCHAR NOT NULL,
			h3_res7 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return eris.Wrap(err, "catalog: create schema")
	}

	return nil
}

func (r *sqlRecordRepository) BulkInsertRecords(records []nearest.Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return eris.Wrap(err, "catalog: begin")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records(id, address, city, state, zip, source, location, h3_res7)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return eris.Wrap(err, "catalog: prepare insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		// out of range coordinates have no cell
		var cell *int64
		if c, err := rec.Point.Cell(cellResolution); err == nil {
			v := int64(c)
			cell = &v
		}

		if _, err := stmt.Exec(
			rec.ID,
			rec.Address,
			rec.City,
			rec.State,
			rec.Zip,
			rec.Source,
			rec.Point,
			cell,
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return eris.Wrapf(err, "catalog: insert record %s", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "catalog: commit")
	}

	return nil
}

func (r *sqlRecordRepository) ListRecords() ([]nearest.Record, error) {
	rows, err := r.db.Query(`
		SELECT id, address, city, state, zip, source, location
		FROM records
		ORDER BY seq
	`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list records")
	}
	defer rows.Close()

	var records []nearest.Record

	for rows.Next() {
		var rec nearest.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.Address,
			&rec.City,
			&rec.State,
			&rec.Zip,
			&rec.Source,
			&rec.Point,
		); err != nil {
			return nil, eris.Wrap(err, "catalog: scan record")
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate records")
	}

	return records, nil
}

func (r *sqlRecordRepository) CountRecords() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "catalog: count records")
	}

	return count, nil
}

func (r *sqlRecordRepository) CountBySource() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT source, COUNT(*) FROM records GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: count by source")
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var (
			source string
			count  int
		)

		if err := rows.Scan(&source, &count); err != nil {
			return nil, eris.Wrap(err, "catalog: scan source count")
		}

		counts[source] = count
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate source counts")
	}

	return counts, nil
}

func (r *sqlRecordRepository) Truncate() error {
	if _, err := r.db.Exec(`DELETE FROM records`); err != nil {
		return eris.Wrap(err, "catalog: truncate")
	}

	return nil
}
