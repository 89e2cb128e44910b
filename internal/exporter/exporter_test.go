package exporter

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
	"idxcast/internal/trainer"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	err := w.WriteCSV("out/data.csv", WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}, {"3", "4"}},
	})
	require.NoError(t, err)

	records := readCSV(t, filepath.Join(dir, "out", "data.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"a", "b"}, records[0])
	assert.Equal(t, []string{"3", "4"}, records[2])
}

func TestWriteCSV_Append(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteCSV("data.csv", WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	}))
	require.NoError(t, w.WriteCSV("data.csv", WriteOptions{
		Records: [][]string{{"2"}},
		Append:  true,
	}))

	records := readCSV(t, filepath.Join(dir, "data.csv"))
	assert.Equal(t, [][]string{{"a"}, {"1"}, {"2"}}, records)
}

func TestWriteCSV_BOMPrefix(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteCSV("bom.csv", WriteOptions{
		Headers:   []string{"a"},
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "bom.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))
}

func TestWriteFrame(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	f := dataset.NewFrame(dates)
	f.SetColumn("close", []float64{100, 101.5})
	f.SetColumn("rsi", []float64{math.NaN(), 60.25})

	dir := t.TempDir()
	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteFrame("features.csv", f, []string{"close", "rsi"}))

	records := readCSV(t, filepath.Join(dir, "features.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "close", "rsi"}, records[0])
	assert.Equal(t, []string{"2024-01-01", "100", ""}, records[1])
	assert.Equal(t, []string{"2024-01-02", "101.5", "60.25"}, records[2])
}

func TestWriteFrame_UnknownColumn(t *testing.T) {
	f := dataset.NewFrame([]time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	f.SetColumn("close", []float64{1})

	w := NewCSVWriter(t.TempDir())
	err := w.WriteFrame("x.csv", f, []string{"absent"})
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidInput))
}

func TestWriteReport(t *testing.T) {
	auc := 0.875
	report := EvaluationReport{
		RunID:     "run-1",
		Pattern:   "nasdaq",
		Model:     "logistic",
		Features:  []string{"pct_change", "rsi"},
		TrainRows: 80,
		TestRows:  20,
		Metrics: trainer.Metrics{
			Accuracy: 0.9,
			ROCAUC:   &auc,
		},
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	dir := t.TempDir()
	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteReport("reports/run-1.json", report))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "run-1.json"))
	require.NoError(t, err)

	var restored EvaluationReport
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, report.RunID, restored.RunID)
	assert.Equal(t, report.Metrics.Accuracy, restored.Metrics.Accuracy)
	require.NotNil(t, restored.Metrics.ROCAUC)
	assert.Equal(t, auc, *restored.Metrics.ROCAUC)
}

func TestAppendMetricsSummary(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	first := EvaluationReport{RunID: "r1", Pattern: "nya", Model: "knn", TrainRows: 40, TestRows: 10, Metrics: trainer.Metrics{Accuracy: 0.8}}
	require.NoError(t, w.AppendMetricsSummary("summary.csv", first))

	auc := 0.75
	second := EvaluationReport{RunID: "r2", Pattern: "nya", Model: "tree", TrainRows: 40, TestRows: 10, Metrics: trainer.Metrics{Accuracy: 0.7, ROCAUC: &auc}}
	require.NoError(t, w.AppendMetricsSummary("summary.csv", second))

	records := readCSV(t, filepath.Join(dir, "summary.csv"))
	require.Len(t, records, 3, "one header and one row per run")
	assert.Equal(t, metricsHeaders, records[0])
	assert.Equal(t, "r1", records[1][0])
	assert.Equal(t, "", records[1][6], "missing AUC stays empty")
	assert.Equal(t, "0.750000", records[2][6])
}
