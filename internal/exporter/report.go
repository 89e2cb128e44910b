package exporter

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"idxcast/internal/errors"
	"idxcast/internal/trainer"
)

// EvaluationReport captures one train-and-evaluate run for a single
// instrument pattern and model variant.
type EvaluationReport struct {
	RunID       string          `json:"run_id"`
	Pattern     string          `json:"pattern"`
	Instruments []string        `json:"instruments,omitempty"`
	Model       string          `json:"model"`
	Features    []string        `json:"features"`
	TrainRows   int             `json:"train_rows"`
	TestRows    int             `json:"test_rows"`
	Metrics     trainer.Metrics `json:"metrics"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// WriteReport persists the report as indented JSON, creating parent
// directories as needed.
func (w *CSVWriter) WriteReport(filePath string, report EvaluationReport) error {
	fullPath := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create report directory", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode report", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return errors.NewStorageError("failed to write report", err)
	}

	slog.Info("Evaluation report written",
		slog.String("path", fullPath),
		slog.String("model", report.Model),
		slog.Float64("accuracy", report.Metrics.Accuracy))
	return nil
}

// metricsHeaders is the column layout of the run summary CSV.
var metricsHeaders = []string{"run_id", "pattern", "model", "train_rows", "test_rows", "accuracy", "roc_auc"}

// AppendMetricsSummary appends one summary row per report to a cumulative
// CSV, writing the header when the file does not exist yet.
func (w *CSVWriter) AppendMetricsSummary(filePath string, reports ...EvaluationReport) error {
	fullPath := w.resolvePath(filePath)
	_, statErr := os.Stat(fullPath)
	exists := statErr == nil

	records := make([][]string, 0, len(reports))
	for _, r := range reports {
		auc := ""
		if r.Metrics.ROCAUC != nil {
			auc = strconv.FormatFloat(*r.Metrics.ROCAUC, 'f', 6, 64)
		}
		records = append(records, []string{
			r.RunID,
			r.Pattern,
			r.Model,
			strconv.Itoa(r.TrainRows),
			strconv.Itoa(r.TestRows),
			strconv.FormatFloat(r.Metrics.Accuracy, 'f', 6, 64),
			auc,
		})
	}

	opts := WriteOptions{Records: records, Append: exists}
	if !exists {
		opts.Headers = metricsHeaders
	}
	return w.WriteCSV(filePath, opts)
}
