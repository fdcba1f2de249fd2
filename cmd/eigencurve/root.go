package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/config"
	logpkg "github.com/kailas-cloud/eigencurve/internal/logger"
	"github.com/kailas-cloud/eigencurve/internal/metrics"
)

// app carries state shared by all subcommands.
type app struct {
	env     string
	verbose bool
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "eigencurve",
		Short: "Curve subspace codec",
		Long: `eigencurve learns a linear basis for the outline curves of a font and
encodes any line, quadratic or cubic Bézier curve as a short coefficient vector.

Example usage:
  eigencurve process Roboto.ttf data.json       # train and write an artifact
  eigencurve process font.ttf data.json --rank 10
  eigencurve visualize data.json --out plot.svg  # 2D layout of the corpus
  eigencurve serve                               # HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(
		newProcessCmd(a),
		newVisualizeCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads the configuration and a CLI logger. serve replaces the logger
// with one for its environment.
func (a *app) init() error {
	cfg, err := config.LoadOrDefault(a.env)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := ""
	if a.verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger

	metrics.RegisterCodecMetrics()
	return nil
}

// exactArgs is cobra.ExactArgs that also prints the usage on a mismatch,
// since the root command silences usage for runtime errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			cmd.PrintErr(cmd.UsageString())
			return err
		}
		return nil
	}
}
