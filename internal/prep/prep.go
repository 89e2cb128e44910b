// Package prep glues loading, instrument filtering, feature engineering,
// feature selection and label validation into one reproducible pipeline per
// instrument pattern.
package prep

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
	"idxcast/internal/features"
)

// Options configures a DataPrep pipeline.
type Options struct {
	DataFile string
	Load     dataset.LoadOptions
	Engine   features.Config
	Lags     int
	// CandidateFeatures overrides the default candidate column list.
	CandidateFeatures []string
	Target            string
	Logger            *slog.Logger
}

// Artifact is the output handed to a Trainer: the engineered, trimmed frame
// and the selected feature columns.
type Artifact struct {
	Pattern     string
	Instruments []string
	Frame       *dataset.Frame
	Features    []string
	Target      string
}

// DataPrep orchestrates the load → filter → engineer → select → validate
// sequence. Each run is independent; a failed run leaves no partial state.
type DataPrep struct {
	opts   Options
	engine *features.Engine
	logger *slog.Logger
}

// New creates a DataPrep with defaults filled in.
func New(opts Options) *DataPrep {
	if opts.Lags <= 0 {
		opts.Lags = 3
	}
	if opts.Target == "" {
		opts.Target = features.ColPriceUp
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DataPrep{
		opts:   opts,
		engine: features.New(opts.Engine),
		logger: opts.Logger,
	}
}

// Engine exposes the configured feature engine.
func (p *DataPrep) Engine() *features.Engine { return p.engine }

// CandidateFeatures returns the feature columns considered for selection.
func (p *DataPrep) CandidateFeatures() []string {
	if len(p.opts.CandidateFeatures) > 0 {
		return append([]string(nil), p.opts.CandidateFeatures...)
	}
	return p.engine.CandidateColumns(p.opts.Lags)
}

// Prepare runs the full pipeline for one instrument pattern.
func (p *DataPrep) Prepare(ctx context.Context, pattern string) (*Artifact, error) {
	filtered, instruments, err := p.LoadAndFilter(ctx, pattern)
	if err != nil {
		return nil, err
	}

	frame, err := p.EngineerFrame(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("engineer %q: %w", pattern, err)
	}

	selected, err := p.SelectFeatures(frame)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(ctx, frame); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "data preparation completed",
		"pattern", pattern,
		"rows", frame.Len(),
		"features", len(selected),
	)
	return &Artifact{
		Pattern:     pattern,
		Instruments: instruments,
		Frame:       frame,
		Features:    selected,
		Target:      p.opts.Target,
	}, nil
}

// LoadAndFilter loads the multi-instrument table and keeps rows whose
// instrument name contains the pattern, case-insensitively.
func (p *DataPrep) LoadAndFilter(ctx context.Context, pattern string) ([]dataset.PriceRow, []string, error) {
	rows, err := dataset.Load(p.opts.DataFile, p.opts.Load)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", p.opts.DataFile, err)
	}

	filtered := dataset.FilterPattern(rows, pattern)
	if len(filtered) == 0 {
		return nil, nil, errors.NewNoMatchingRows(pattern)
	}

	instruments := dataset.Instruments(filtered)
	if len(instruments) > 1 {
		p.logger.WarnContext(ctx, "pattern matches multiple instruments",
			"pattern", pattern,
			"instruments", strings.Join(instruments, ", "),
		)
	}
	p.logger.InfoContext(ctx, "rows loaded for pattern",
		"pattern", pattern,
		"rows", len(filtered),
	)
	return filtered, instruments, nil
}

// EngineerFrame derives features with targets and drops rows with any
// undefined derived value.
func (p *DataPrep) EngineerFrame(ctx context.Context, rows []dataset.PriceRow) (*dataset.Frame, error) {
	engineered, err := p.engine.Engineer(dataset.FrameFromRows(rows), true, p.opts.Lags)
	if err != nil {
		return nil, err
	}

	// Defensive: unreachable given the engine contract.
	if !engineered.HasColumn(p.opts.Target) {
		return nil, errors.NewTargetMissing(p.opts.Target)
	}

	trimmed := engineered.FilterComplete()
	p.logger.DebugContext(ctx, "dropped incomplete rows",
		"before", engineered.Len(),
		"after", trimmed.Len(),
	)
	return trimmed, nil
}

// SelectFeatures keeps the candidate columns present in the frame. A frame
// with no usable rows or no candidate columns fails rather than succeeding
// empty.
func (p *DataPrep) SelectFeatures(frame *dataset.Frame) ([]string, error) {
	if frame.Len() == 0 {
		return nil, errors.NewNoFeaturesSelected("engineering left no complete rows")
	}
	var selected []string
	for _, name := range p.CandidateFeatures() {
		if frame.HasColumn(name) {
			selected = append(selected, name)
		}
	}
	if len(selected) == 0 {
		return nil, errors.NewNoFeaturesSelected("no candidate feature present in engineered frame")
	}
	return selected, nil
}

// Validate checks that the label supports binary classification: at least two
// distinct values and at least one positive example.
func (p *DataPrep) Validate(ctx context.Context, frame *dataset.Frame) error {
	label, ok := frame.Column(p.opts.Target)
	if !ok {
		return errors.NewTargetMissing(p.opts.Target)
	}

	distinct := make(map[float64]bool)
	positives := 0
	for _, v := range label {
		distinct[v] = true
		if v > 0 {
			positives++
		}
	}
	if len(distinct) < 2 || positives == 0 {
		return errors.NewClassVariety(
			fmt.Sprintf("%d classes, %d positive samples", len(distinct), positives))
	}

	p.logger.InfoContext(ctx, "label distribution validated",
		"rows", len(label),
		"classes", len(distinct),
		"positives", positives,
	)
	return nil
}
