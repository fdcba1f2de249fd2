package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/config"
	dbRedis "github.com/kailas-cloud/eigencurve/internal/db/redis"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	"github.com/kailas-cloud/eigencurve/internal/output"
	artifactrepo "github.com/kailas-cloud/eigencurve/internal/repository/artifact"
	"github.com/kailas-cloud/eigencurve/internal/transport/font"
	processuc "github.com/kailas-cloud/eigencurve/internal/usecase/process"
)

type processOptions struct {
	chars  string
	points int
	rank   int
	cutoff float64
	store  string
}

func newProcessCmd(a *app) *cobra.Command {
	opts := &processOptions{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "process <font_path> <output_path>",
		Short: "Extract font curves, train a basis and write the artifact",
		Long: `Extracts the outline curves of the selected characters, trains a basis on
their samples, prints the reconstruction error for every truncation rank and
writes the JSON artifact.

Flags not given on the command line come from the codec section of the config.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd, a.cfg.Codec)
			return runProcess(cmd, a, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.chars, "chars", defaults.Codec.Characters, "characters whose outlines form the corpus")
	cmd.Flags().IntVar(&opts.points, "points", defaults.Codec.NumPoints, "sample points per curve")
	cmd.Flags().IntVar(&opts.rank, "rank", defaults.Codec.Rank, "basis rank (0 = adaptive, chosen by --cutoff)")
	cmd.Flags().Float64Var(&opts.cutoff, "cutoff", defaults.Codec.Cutoff, "singular value cutoff for the adaptive rank")
	cmd.Flags().StringVar(&opts.store, "store", "", "also store the model in Redis under this name")
	return cmd
}

// applyConfig fills options the user did not set explicitly from cfg.
func (o *processOptions) applyConfig(cmd *cobra.Command, cfg config.CodecConfig) {
	flags := cmd.Flags()
	if !flags.Changed("chars") && cfg.Characters != "" {
		o.chars = cfg.Characters
	}
	if !flags.Changed("points") && cfg.NumPoints > 0 {
		o.points = cfg.NumPoints
	}
	if !flags.Changed("rank") {
		o.rank = cfg.Rank
	}
	if !flags.Changed("cutoff") && cfg.Cutoff > 0 {
		o.cutoff = cfg.Cutoff
	}
}

func runProcess(cmd *cobra.Command, a *app, opts *processOptions, fontPath, outputPath string) error {
	ctx := cmd.Context()

	// Pass nil interface (not typed nil pointer!) when no model store is used.
	var models processuc.ModelSaver
	if opts.store != "" {
		if !a.cfg.Database.Enabled {
			return errors.New("--store requires database.enabled in the config")
		}
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    a.cfg.Database.Addrs,
			Username: a.cfg.Database.Username,
			Password: a.cfg.Database.Password,
			DB:       a.cfg.Database.DB,
		})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer store.Close()
		if err := store.WaitForReady(ctx, time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
		models = artifactrepo.New(store, a.cfg.Storage.KeyPrefix)
	}

	svc := processuc.New(font.NewLoader(a.logger), artifactrepo.NewFileStore(), models, a.logger)
	res, err := svc.Run(ctx, processuc.Request{
		FontPath:   fontPath,
		OutputPath: outputPath,
		Characters: opts.chars,
		Train: subspace.TrainConfig{
			NumPoints: opts.points,
			Rank:      opts.rank,
			Cutoff:    opts.cutoff,
		},
		ModelName: opts.store,
	})
	if err != nil {
		return err
	}
	a.logger.Debug("process finished", zap.Int("rank", res.Rank))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Number of curves: %d\n", res.Curves)
	fmt.Fprintf(w, "Basis shape: %d x %d\n", res.BasisRows, res.BasisCols)
	fmt.Fprintf(w, "Rank: %d\n", res.Rank)
	fmt.Fprintf(w, "Number of coefficients: %d\n", res.Curves*res.Rank)
	fmt.Fprintln(w)
	if err := output.EvaluationTable(w, res.Evaluation); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if res.StoredAs != "" {
		fmt.Fprintf(w, "Model stored as %q\n", res.StoredAs)
	}
	fmt.Fprintf(w, "Processing complete. Data saved to %s\n", outputPath)
	return nil
}
