// Package visualize lays out a trained corpus in the plane of its first two
// principal components.
package visualize

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Service loads artifacts and renders their layout.
type Service struct {
	artifacts ArtifactReader
	logger    *zap.Logger
}

// New creates a visualization service.
func New(artifacts ArtifactReader, logger *zap.Logger) *Service {
	return &Service{artifacts: artifacts, logger: logger}
}

// Layout loads the artifact at path and projects it onto a width×height canvas.
func (s *Service) Layout(path string, width, height int) (*Layout, error) {
	d, err := s.artifacts.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	l, err := Project(d, width, height)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Corpus projected",
		zap.String("path", path),
		zap.Int("curves", len(l.Placements)),
		zap.Float64s("variances", l.Variances),
	)
	return l, nil
}

// Render writes the layout of the artifact at path as SVG to w.
func (s *Service) Render(w io.Writer, path string, width, height int) (*Layout, error) {
	l, err := s.Layout(path, width, height)
	if err != nil {
		return nil, err
	}
	if err := WriteSVG(w, l); err != nil {
		return nil, err
	}
	return l, nil
}
