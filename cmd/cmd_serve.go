// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/closest/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var records []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := a.loadRecords(records)
			if err != nil {
				return err
			}

			unit, err := a.cfg.DistanceUnit()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.NewServer(loaded, unit, a.cfg.Seed, a.logger).Run(ctx, a.cfg.Server.Addr)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&records, "records", nil, "store file; repeatable")
	flags.String("db", "", "DuckDB catalog to read stores from when --records is not given")
	flags.String("addr", "localhost:8080", "listen address")
	flags.String("unit", "km", "distance unit: km or mi")
	flags.Uint64("seed", 0, "pivot seed for reproducible answers (0 = random)")

	return cmd
}
