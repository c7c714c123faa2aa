// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/jcodagnone/closest/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := config.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	a.cfg = cfg
	a.logger = zap.L()

	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "closest",
		Short: "tie-inclusive k-closest store queries",
		Long: `
closest answers, for each query point, which stores are among the k closest
to it. Every store at the same distance as the k-th closest one is included,
so a query may return more than k stores.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (default ./closest.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	root.AddCommand(
		newQueryCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func Execute(version string) {
	Version = version

	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
