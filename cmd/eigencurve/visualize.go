package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/eigencurve/internal/output"
	artifactrepo "github.com/kailas-cloud/eigencurve/internal/repository/artifact"
	"github.com/kailas-cloud/eigencurve/internal/usecase/visualize"
)

type visualizeOptions struct {
	out    string
	width  int
	height int
}

func newVisualizeCmd(a *app) *cobra.Command {
	opts := &visualizeOptions{}

	cmd := &cobra.Command{
		Use:   "visualize <data_path>",
		Short: "Project stored embeddings to 2D and draw them as SVG",
		Long: `Loads an artifact written by process, projects its embeddings onto their
first two principal components, prints the coordinates and writes an SVG that
draws every sampled curve at its projected position.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataPath := args[0]
			if opts.out == "" {
				opts.out = strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + ".svg"
			}
			return runVisualize(cmd, a, opts, dataPath)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "SVG output path (default: <data_path>.svg)")
	cmd.Flags().IntVar(&opts.width, "width", visualize.DefaultWidth, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", visualize.DefaultHeight, "canvas height in pixels")
	return cmd
}

func runVisualize(cmd *cobra.Command, a *app, opts *visualizeOptions, dataPath string) error {
	svc := visualize.New(artifactrepo.NewFileStore(), a.logger)

	l, err := svc.Layout(dataPath, opts.width, opts.height)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(opts.out))
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.out, err)
	}
	if err := visualize.WriteSVG(f, l); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", opts.out, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Embeddings: %d\n", len(l.Placements))
	for i, v := range l.Variances {
		fmt.Fprintf(w, "PC%d variance: %s\n", i+1, strconv.FormatFloat(v, 'g', 6, 64))
	}
	fmt.Fprintln(w)

	t := output.NewTable(w, "Curve", "PC1", "PC2", "X", "Y")
	for _, p := range l.Placements {
		t.AddRow(
			strconv.Itoa(p.Index),
			strconv.FormatFloat(p.PC[0], 'f', 4, 64),
			strconv.FormatFloat(p.PC[1], 'f', 4, 64),
			strconv.FormatFloat(p.X, 'f', 1, 64),
			strconv.FormatFloat(p.Y, 'f', 1, 64),
		)
	}
	if err := t.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPlot saved to %s\n", opts.out)
	return nil
}
