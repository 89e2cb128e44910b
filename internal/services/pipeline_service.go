// Package services hosts the application services behind the HTTP and CLI
// surfaces: training runs, data preparation and health reporting.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"idxcast/internal/config"
	"idxcast/internal/dataset"
	"idxcast/internal/errors"
	"idxcast/internal/exporter"
	"idxcast/internal/features"
	"idxcast/internal/infrastructure"
	"idxcast/internal/prep"
	"idxcast/internal/split"
	"idxcast/internal/trainer"
)

// summaryFile is the cumulative run summary under the reports directory.
const summaryFile = "summary.csv"

// PipelineService runs the end-to-end pipeline: prepare, split, train,
// evaluate, persist.
type PipelineService struct {
	cfg    *config.Config
	logger *slog.Logger
	writer *exporter.CSVWriter
}

// NewPipelineService creates a pipeline service using the default logger
func NewPipelineService(cfg *config.Config) *PipelineService {
	return NewPipelineServiceWithLogger(cfg, slog.Default())
}

// NewPipelineServiceWithLogger creates a pipeline service with a specific logger
func NewPipelineServiceWithLogger(cfg *config.Config, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{
		cfg:    cfg,
		logger: logger,
		writer: exporter.NewCSVWriter(cfg.Paths.ReportsDir),
	}
}

// TrainRequest selects the data slice and model variant for one run.
// Zero-valued fields fall back to the configured defaults.
type TrainRequest struct {
	Pattern      string    `json:"pattern" validate:"required"`
	Model        string    `json:"model,omitempty" validate:"omitempty,oneof=logistic knn tree boosted"`
	TestFraction float64   `json:"test_fraction,omitempty" validate:"omitempty,gt=0,lt=1"`
	From         time.Time `json:"from,omitempty"`
	To           time.Time `json:"to,omitempty"`
}

// Train executes one full run and writes the model, the report and a summary
// row. The returned report mirrors what was written to disk.
func (s *PipelineService) Train(ctx context.Context, req TrainRequest) (*exporter.EvaluationReport, error) {
	runID := uuid.New().String()
	model := req.Model
	if model == "" {
		model = s.cfg.Pipeline.Model
	}
	start := time.Now()

	s.logger.InfoContext(ctx, "training run started",
		"run_id", runID,
		"pattern", req.Pattern,
		"model", model,
	)

	report, err := s.train(ctx, runID, model, req)
	infrastructure.TrainDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		infrastructure.TrainRunsTotal.WithLabelValues(model, "error").Inc()
		s.logger.ErrorContext(ctx, "training run failed",
			"run_id", runID,
			"pattern", req.Pattern,
			"error", err,
		)
		return nil, err
	}

	infrastructure.TrainRunsTotal.WithLabelValues(model, "success").Inc()
	infrastructure.ModelAccuracy.WithLabelValues(req.Pattern, model).Set(report.Metrics.Accuracy)
	s.logger.InfoContext(ctx, "training run completed",
		"run_id", runID,
		"pattern", req.Pattern,
		"model", model,
		"accuracy", report.Metrics.Accuracy,
		"duration", time.Since(start).String(),
	)
	return report, nil
}

func (s *PipelineService) train(ctx context.Context, runID, model string, req TrainRequest) (*exporter.EvaluationReport, error) {
	artifact, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	fraction := req.TestFraction
	if fraction == 0 {
		fraction = s.cfg.Pipeline.TestFraction
	}
	splitter, err := split.New(fraction)
	if err != nil {
		return nil, err
	}

	tr, err := s.newTrainer(model, artifact.Features)
	if err != nil {
		return nil, err
	}

	prepared, err := tr.Prepare(artifact.Frame, splitter)
	if err != nil {
		return nil, err
	}
	if err := tr.Fit(prepared.XTrain, prepared.YTrain); err != nil {
		return nil, err
	}
	metrics, err := tr.Evaluate(prepared.XTest, prepared.YTest)
	if err != nil {
		return nil, err
	}

	if err := tr.Save(s.cfg.ModelPath(req.Pattern, model)); err != nil {
		return nil, err
	}

	report := exporter.EvaluationReport{
		RunID:       runID,
		Pattern:     req.Pattern,
		Instruments: artifact.Instruments,
		Model:       model,
		Features:    artifact.Features,
		TrainRows:   len(prepared.XTrain),
		TestRows:    len(prepared.XTest),
		Metrics:     metrics,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.writer.WriteReport(runID+".json", report); err != nil {
		return nil, err
	}
	if err := s.writer.AppendMetricsSummary(summaryFile, report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Prepare runs data preparation only, without training.
func (s *PipelineService) Prepare(ctx context.Context, req TrainRequest) (*prep.Artifact, error) {
	p := prep.New(prep.Options{
		DataFile: s.cfg.Paths.DataFile,
		Load:     dataset.LoadOptions{From: req.From, To: req.To},
		Engine: features.Config{
			ShortWindow: s.cfg.Pipeline.ShortWindow,
			LongWindow:  s.cfg.Pipeline.LongWindow,
			RSIPeriod:   s.cfg.Pipeline.RSIPeriod,
			TargetShift: s.cfg.Pipeline.TargetShift,
		},
		Lags:   s.cfg.Pipeline.LagCount,
		Logger: s.logger,
	})

	artifact, err := p.Prepare(ctx, req.Pattern)
	if err != nil {
		return nil, err
	}
	infrastructure.RowsPrepared.WithLabelValues(req.Pattern).Observe(float64(artifact.Frame.Len()))
	return artifact, nil
}

// ExportFeatures engineers features for a pattern and writes them as CSV.
// Returns the written row count.
func (s *PipelineService) ExportFeatures(ctx context.Context, req TrainRequest, outPath string) (int, error) {
	artifact, err := s.Prepare(ctx, req)
	if err != nil {
		return 0, err
	}

	columns := append(append([]string(nil), artifact.Features...),
		features.ColFutureReturn, features.ColPriceUp)
	writer := exporter.NewCSVWriter("")
	if err := writer.WriteFrame(outPath, artifact.Frame, columns); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "feature export completed",
		"pattern", req.Pattern,
		"path", outPath,
		"rows", artifact.Frame.Len(),
	)
	return artifact.Frame.Len(), nil
}

// newTrainer builds the requested model variant over the selected features.
func (s *PipelineService) newTrainer(model string, featureNames []string) (trainer.Trainer, error) {
	switch model {
	case "logistic":
		return trainer.NewLogisticTrainer(featureNames, ""), nil
	case "knn":
		return trainer.NewKNNTrainer(featureNames, "", s.cfg.Pipeline.KNNNeighbors), nil
	case "tree":
		return trainer.NewTreeTrainer(featureNames, "", s.cfg.Pipeline.TreeMaxDepth, categoricalFeatures(featureNames)), nil
	case "boosted":
		return trainer.NewBoostedTrainer(featureNames, "", trainer.BoostParams{}), nil
	default:
		return nil, errors.NewInvalidConfiguration(fmt.Sprintf("unknown model %q", model))
	}
}

// categoricalFeatures picks the calendar columns out of the feature list;
// they are one-hot encoded for the tree variant.
func categoricalFeatures(featureNames []string) []string {
	var out []string
	for _, name := range featureNames {
		if name == features.ColDayOfWeek || name == features.ColMonth {
			out = append(out, name)
		}
	}
	return out
}

// ParseTimeout reads a timeout override from a request header value, falling
// back to the configured train timeout.
func (s *PipelineService) ParseTimeout(raw string) time.Duration {
	if raw == "" {
		return s.cfg.Server.TrainTimeout
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return s.cfg.Server.TrainTimeout
}
