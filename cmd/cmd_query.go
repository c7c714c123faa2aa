// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/jcodagnone/closest/catalog"
	"github.com/jcodagnone/closest/nearest"
	"github.com/jcodagnone/closest/report"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// logEvery is how often batch progress is logged when stderr is not a terminal.
const logEvery = 100

type queryOptions struct {
	records []string
	queries string
}

func newQueryCmd(a *app) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Answer every query of a file against the stores",
		Long: `Reads lat,lng,k queries and prints, for each one and in file order, every
store whose distance is at most the distance of the k-th closest store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := report.New(a.cfg.Format)
			if err != nil {
				return err
			}

			records, err := a.loadRecords(opts.records)
			if err != nil {
				return err
			}

			queries, _, err := catalog.NewReader(a.logger).LoadQueryFile(opts.queries)
			if err != nil {
				return fmt.Errorf("reading queries: %w", err)
			}

			evaluator, err := a.evaluator()
			if err != nil {
				return err
			}

			results, err := evaluator.EvaluateAll(cmd.Context(), records, queries, a.progress(len(queries)))
			if err != nil {
				return err
			}

			return formatter.Write(cmd.OutOrStdout(), results)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.records, "records", nil, "store file (id,address,city,state,zip,lat,lng); repeatable")
	flags.StringVar(&opts.queries, "queries", "", "query file (lat,lng,k)")
	flags.String("db", "", "DuckDB catalog to read stores from when --records is not given")
	flags.String("format", "text", "output format: text or json")
	flags.String("unit", "km", "distance unit: km or mi")
	flags.Uint64("seed", 0, "pivot seed for reproducible runs (0 = random)")
	_ = cmd.MarkFlagRequired("queries")

	return cmd
}

// progress reports batch progress with a bar on a terminal and with
// periodic log lines otherwise.
func (a *app) progress(total int) nearest.Progress {
	if total == 0 {
		return nil
	}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Evaluating queries"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return func(_, _ int) {
			_ = bar.Add(1)
		}
	}

	return func(done, total int) {
		if done%logEvery == 0 || done == total {
			a.logger.Info("evaluating queries", zap.Int("done", done), zap.Int("total", total))
		}
	}
}
