package trainer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
	"idxcast/internal/split"
)

// labeledFrame builds a frame with two informative features and a label that
// is 1 exactly when feature "a" exceeds 0.
func labeledFrame(n int) *dataset.Frame {
	dates := make([]time.Time, n)
	a := make([]float64, n)
	b := make([]float64, n)
	label := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		a[i] = float64(i%7) - 3
		b[i] = float64(i % 5)
		if a[i] > 0 {
			label[i] = 1
		}
	}
	f := dataset.NewFrame(dates)
	f.SetColumn("a", a)
	f.SetColumn("b", b)
	f.SetColumn(DefaultTarget, label)
	return f
}

func mustSplitter(t *testing.T, fraction float64) *split.Splitter {
	t.Helper()
	s, err := split.New(fraction)
	require.NoError(t, err)
	return s
}

func TestBase_BuildPipelineNotImplemented(t *testing.T) {
	base := NewBase("bare", []string{"a"}, "", nil)

	_, err := base.BuildPipeline()
	assert.ErrorIs(t, err, ErrNotImplemented)

	// Fit surfaces the same failure through the lazy build.
	err = base.Fit([][]float64{{1}}, []int{0})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestBase_PrepareAlignsLabelsByDate(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a", "b"}, "")
	f := labeledFrame(50)

	prep, err := tr.Prepare(f, mustSplitter(t, 0.2))
	require.NoError(t, err)

	assert.Len(t, prep.XTrain, 40)
	assert.Len(t, prep.XTest, 10)
	require.Len(t, prep.YTrain, 40)
	require.Len(t, prep.YTest, 10)

	// Labels must match the rows they were derived from.
	for i, row := range prep.XTrain {
		want := 0
		if row[0] > 0 {
			want = 1
		}
		assert.Equal(t, want, prep.YTrain[i], "train row %d", i)
	}
	for i, row := range prep.XTest {
		want := 0
		if row[0] > 0 {
			want = 1
		}
		assert.Equal(t, want, prep.YTest[i], "test row %d", i)
	}

	// Strict chronological separation.
	assert.True(t, prep.TrainDates[len(prep.TrainDates)-1].Before(prep.TestDates[0]))
}

func TestBase_PrepareTargetMissing(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a"}, "absent_target")
	_, err := tr.Prepare(labeledFrame(10), mustSplitter(t, 0.2))
	assert.True(t, errors.IsType(err, errors.ErrTypeTargetMissing))
}

func TestBase_PredictBeforeFit(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a"}, "")
	_, err := tr.Predict([][]float64{{1}})
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFitted))

	_, err = tr.Evaluate([][]float64{{1}}, []int{1})
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFitted))

	err = tr.Save(filepath.Join(t.TempDir(), "model.gob"))
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFitted))
}

func trainAndEvaluate(t *testing.T, tr Trainer) Metrics {
	t.Helper()
	prep, err := tr.Prepare(labeledFrame(120), mustSplitter(t, 0.25))
	require.NoError(t, err)
	require.NoError(t, tr.Fit(prep.XTrain, prep.YTrain))

	m, err := tr.Evaluate(prep.XTest, prep.YTest)
	require.NoError(t, err)
	return m
}

func TestLogisticTrainer_Lifecycle(t *testing.T) {
	m := trainAndEvaluate(t, NewLogisticTrainer([]string{"a", "b"}, ""))

	assert.Greater(t, m.Accuracy, 0.9, "separable data should be learned")
	require.NotNil(t, m.ROCAUC, "logistic estimates probabilities")
	assert.Greater(t, *m.ROCAUC, 0.9)
	assert.Contains(t, m.ClassificationReport, "precision")
}

func TestKNNTrainer_Lifecycle(t *testing.T) {
	m := trainAndEvaluate(t, NewKNNTrainer([]string{"a", "b"}, "", 3))
	assert.Greater(t, m.Accuracy, 0.9)
	require.NotNil(t, m.ROCAUC)
}

func TestTreeTrainer_Lifecycle(t *testing.T) {
	m := trainAndEvaluate(t, NewTreeTrainer([]string{"a", "b"}, "", 5, []string{"b"}))
	assert.Greater(t, m.Accuracy, 0.9)
	require.NotNil(t, m.ROCAUC)
}

func TestBoostedTrainer_MissingBackend(t *testing.T) {
	// The boost subpackage is deliberately not imported by this test binary,
	// so the capability check must fail at build time, not at import time.
	tr := NewBoostedTrainer([]string{"a"}, "", BoostParams{})

	_, err := tr.BuildPipeline()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeMissingDependency))

	err = tr.Fit([][]float64{{1}, {2}}, []int{0, 1})
	assert.True(t, errors.IsType(err, errors.ErrTypeMissingDependency))
}

func TestBase_EvaluateSingleClassSkipsAUC(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a"}, "")
	X := [][]float64{{-1}, {-2}, {1}, {2}}
	y := []int{0, 0, 1, 1}
	require.NoError(t, tr.Fit(X, y))

	m, err := tr.Evaluate([][]float64{{5}, {6}}, []int{1, 1})
	require.NoError(t, err)
	assert.Nil(t, m.ROCAUC, "single-class test set cannot score AUC")
	assert.Equal(t, 1.0, m.Accuracy)
}

func TestBase_SaveLoadRoundtrip(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a", "b"}, "")
	prep, err := tr.Prepare(labeledFrame(60), mustSplitter(t, 0.2))
	require.NoError(t, err)
	require.NoError(t, tr.Fit(prep.XTrain, prep.YTrain))

	want, err := tr.Predict(prep.XTest)
	require.NoError(t, err)

	// Nested path exercises parent directory creation.
	path := filepath.Join(t.TempDir(), "models", "logistic", "model.gob")
	require.NoError(t, tr.Save(path))

	restored := NewLogisticTrainer([]string{"a", "b"}, "")
	require.NoError(t, restored.Load(path))

	got, err := restored.Predict(prep.XTest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBase_FailedFitKeepsPreviousPipeline(t *testing.T) {
	tr := NewLogisticTrainer([]string{"a"}, "")
	require.NoError(t, tr.Fit([][]float64{{-1}, {1}}, []int{0, 1}))

	// An empty training set must not clobber the fitted pipeline.
	err := tr.Fit(nil, nil)
	require.Error(t, err)

	_, err = tr.Predict([][]float64{{1}})
	assert.NoError(t, err)
}
