// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/closest/catalog"
	"github.com/jcodagnone/closest/nearest"
	"github.com/jcodagnone/closest/selection"
	"go.uber.org/zap"
)

var errNoRecords = errors.New("no records source: pass --records or --db")

// openCatalog opens the DuckDB catalog at path and ensures its schema.
func openCatalog(path string, create bool) (*sql.DB, catalog.Repository, error) {
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("database not found at %s - run 'import' first", path)
		}
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := catalog.NewRecordRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

// loadRecords reads records from the given files or, when there are none,
// from the configured DuckDB catalog.
func (a *app) loadRecords(paths []string) ([]nearest.Record, error) {
	if len(paths) > 0 {
		records, stats, err := catalog.NewReader(a.logger).LoadRecordFiles(paths...)
		if err != nil {
			return nil, fmt.Errorf("reading records: %w", err)
		}

		if stats.Skipped > 0 {
			a.logger.Warn("skipped malformed record rows", zap.Int("skipped", stats.Skipped))
		}

		return records, nil
	}

	if a.cfg.DB.Path == "" {
		return nil, errNoRecords
	}

	db, repo, err := openCatalog(a.cfg.DB.Path, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	records, err := repo.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	a.logger.Info("records loaded", zap.String("db", a.cfg.DB.Path), zap.Int("records", len(records)))

	return records, nil
}

func (a *app) evaluator() (*nearest.Evaluator, error) {
	unit, err := a.cfg.DistanceUnit()
	if err != nil {
		return nil, err
	}

	src := selection.Global()
	if a.cfg.Seed != 0 {
		src = selection.NewSource(a.cfg.Seed)
	}

	return nearest.NewEvaluator(
		nearest.WithUnit(unit),
		nearest.WithSource(src),
		nearest.WithLogger(a.logger),
	), nil
}
