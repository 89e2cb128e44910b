package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxcast/internal/config"
	"idxcast/internal/errors"

	_ "idxcast/internal/trainer/boost"
)

// testConfig writes a data file with an oscillating series for one instrument
// and returns a config rooted in a temp dir.
func testConfig(t *testing.T, n int) *config.Config {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("Index,Date,Open,High,Low,Close,Volume\n")
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)*0.7) + 0.05*float64(i)
		d := start.AddDate(0, 0, i)
		fmt.Fprintf(&b, "NYA,%s,%.4f,%.4f,%.4f,%.4f,1000\n",
			d.Format("2006-01-02"), c, c*1.01, c*0.99, c)
	}
	dataFile := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(dataFile, []byte(b.String()), 0o644))

	cfg := config.Default()
	cfg.Paths.DataFile = dataFile
	cfg.Paths.ModelsDir = filepath.Join(dir, "models")
	cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	return cfg
}

func TestTrain_WritesModelReportAndSummary(t *testing.T) {
	cfg := testConfig(t, 160)
	svc := NewPipelineService(cfg)

	report, err := svc.Train(context.Background(), TrainRequest{Pattern: "york"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "logistic", report.Model)
	assert.Equal(t, []string{"New York"}, report.Instruments)
	assert.NotEmpty(t, report.Features)
	assert.Greater(t, report.TrainRows, report.TestRows)
	assert.GreaterOrEqual(t, report.Metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Metrics.Accuracy, 1.0)

	_, err = os.Stat(cfg.ModelPath("york", "logistic"))
	assert.NoError(t, err, "model file must be persisted")
	_, err = os.Stat(cfg.ReportPath(report.RunID))
	assert.NoError(t, err, "report JSON must be persisted")
	_, err = os.Stat(filepath.Join(cfg.Paths.ReportsDir, summaryFile))
	assert.NoError(t, err, "summary row must be appended")
}

func TestTrain_AllVariants(t *testing.T) {
	cfg := testConfig(t, 160)
	svc := NewPipelineService(cfg)

	for _, model := range []string{"logistic", "knn", "tree", "boosted"} {
		t.Run(model, func(t *testing.T) {
			report, err := svc.Train(context.Background(), TrainRequest{Pattern: "york", Model: model})
			require.NoError(t, err)
			assert.Equal(t, model, report.Model)
		})
	}
}

func TestTrain_UnknownModel(t *testing.T) {
	cfg := testConfig(t, 160)
	svc := NewPipelineService(cfg)

	_, err := svc.Train(context.Background(), TrainRequest{Pattern: "york", Model: "forest"})
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidConfiguration))
}

func TestTrain_NoMatchingRows(t *testing.T) {
	cfg := testConfig(t, 60)
	svc := NewPipelineService(cfg)

	_, err := svc.Train(context.Background(), TrainRequest{Pattern: "tokyo"})
	assert.True(t, errors.IsType(err, errors.ErrTypeNoMatchingRows))
}

func TestTrain_TestFractionOverride(t *testing.T) {
	cfg := testConfig(t, 160)
	svc := NewPipelineService(cfg)

	report, err := svc.Train(context.Background(), TrainRequest{Pattern: "york", TestFraction: 0.5})
	require.NoError(t, err)

	// 160 rows lose 19 to warm-up and 1 to the target shift, leaving 140.
	assert.Equal(t, 70, report.TrainRows)
	assert.Equal(t, 70, report.TestRows)
}

func TestTrain_DateRangeFilter(t *testing.T) {
	cfg := testConfig(t, 160)
	// Restrict the range so that fewer rows survive.
	svc := NewPipelineService(cfg)

	full, err := svc.Prepare(context.Background(), TrainRequest{Pattern: "york"})
	require.NoError(t, err)

	bounded, err := svc.Prepare(context.Background(), TrainRequest{
		Pattern: "york",
		From:    time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Less(t, bounded.Frame.Len(), full.Frame.Len())
}

func TestExportFeatures(t *testing.T) {
	cfg := testConfig(t, 120)
	svc := NewPipelineService(cfg)

	out := filepath.Join(t.TempDir(), "features.csv")
	rows, err := svc.ExportFeatures(context.Background(), TrainRequest{Pattern: "york"}, out)
	require.NoError(t, err)
	assert.Equal(t, 100, rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	head := strings.SplitN(string(data), "\n", 2)[0]
	assert.Contains(t, head, "date")
	assert.Contains(t, head, "pct_change")
	assert.Contains(t, head, "price_up")
}

func TestParseTimeout(t *testing.T) {
	cfg := config.Default()
	svc := NewPipelineService(cfg)

	assert.Equal(t, cfg.Server.TrainTimeout, svc.ParseTimeout(""))
	assert.Equal(t, cfg.Server.TrainTimeout, svc.ParseTimeout("not-a-number"))
	assert.Equal(t, cfg.Server.TrainTimeout, svc.ParseTimeout("-5"))
	assert.Equal(t, 30*time.Second, svc.ParseTimeout("30"))
}

func TestHealthService(t *testing.T) {
	cfg := testConfig(t, 40)
	svc := NewHealthService(cfg, nil, "1.2.3")

	status := svc.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.DataReady)
	assert.Equal(t, "1.2.3", status.Version)

	cfg.Paths.DataFile = filepath.Join(t.TempDir(), "missing.csv")
	status = svc.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.DataReady)
}
