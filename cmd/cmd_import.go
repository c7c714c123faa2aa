// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jcodagnone/closest/catalog"
	"github.com/jcodagnone/closest/utils/textutils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	var truncate bool

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Load store files into the DuckDB catalog",
		Long: `Appends the stores of every file, in the order given, to the catalog so
later queries can run with --db instead of --records.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DB.Path == "" {
				return errors.New("--db is required")
			}

			records, stats, err := catalog.NewReader(a.logger).LoadRecordFiles(args...)
			if err != nil {
				return fmt.Errorf("reading records: %w", err)
			}

			db, repo, err := openCatalog(a.cfg.DB.Path, true)
			if err != nil {
				return err
			}
			defer db.Close()

			if truncate {
				if err := repo.Truncate(); err != nil {
					return fmt.Errorf("truncating catalog: %w", err)
				}
			}

			if err := repo.BulkInsertRecords(records); err != nil {
				return fmt.Errorf("saving records: %w", err)
			}

			total, err := repo.CountRecords()
			if err != nil {
				return fmt.Errorf("counting records: %w", err)
			}

			bySource, err := repo.CountBySource()
			if err != nil {
				return fmt.Errorf("counting records by source: %w", err)
			}

			a.logger.Info("import complete",
				zap.Int("rows", stats.Rows),
				zap.Int("skipped", stats.Skipped),
				zap.Int("total", total),
				zap.Any("by_source", bySource),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s stores (%s rows skipped), %s stores in %s\n",
				textutils.FormatInt(int64(stats.Kept)),
				textutils.FormatInt(int64(stats.Skipped)),
				textutils.FormatInt(int64(total)),
				a.cfg.DB.Path,
			)

			for _, source := range slices.Sorted(maps.Keys(bySource)) {
				fmt.Fprintf(cmd.OutOrStdout(), "   %s: %s\n", source, textutils.FormatInt(int64(bySource[source])))
			}

			return nil
		},
	}

	cmd.Flags().String("db", "", "DuckDB catalog file")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "remove existing stores first")

	return cmd
}
