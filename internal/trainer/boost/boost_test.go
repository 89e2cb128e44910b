package boost

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxcast/internal/dataset"
	"idxcast/internal/split"
	"idxcast/internal/trainer"
)

func TestBackendRegistration(t *testing.T) {
	tr := trainer.NewBoostedTrainer([]string{"a"}, "", trainer.BoostParams{})

	p, err := tr.BuildPipeline()
	require.NoError(t, err, "importing boost registers the backend")
	require.NotNil(t, p)
}

func TestGradientBoosting_LearnsThreshold(t *testing.T) {
	var X [][]float64
	var y []int
	for i := 0; i < 80; i++ {
		v := float64(i%10) - 4.5
		X = append(X, []float64{v})
		if v > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	g := &GradientBoosting{Estimators: 20, MaxDepth: 3, LearningRate: 0.3}
	require.NoError(t, g.Fit(X, y))

	pred := g.Predict(X)
	assert.Equal(t, y, pred)

	proba := g.PredictProba(X)
	for i := range proba {
		assert.GreaterOrEqual(t, proba[i], 0.0)
		assert.LessOrEqual(t, proba[i], 1.0)
	}
}

func TestGradientBoosting_SingleClass(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{1, 1, 1}

	g := &GradientBoosting{Estimators: 5, MaxDepth: 2, LearningRate: 0.1}
	require.NoError(t, g.Fit(X, y))
	assert.Equal(t, []int{1, 1, 1}, g.Predict(X))
}

func TestBoostedTrainer_EndToEnd(t *testing.T) {
	n := 100
	dates := make([]time.Time, n)
	a := make([]float64, n)
	label := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		a[i] = float64(i%8) - 3.5
		if a[i] > 0 {
			label[i] = 1
		}
	}
	f := dataset.NewFrame(dates)
	f.SetColumn("a", a)
	f.SetColumn(trainer.DefaultTarget, label)

	s, err := split.New(0.2)
	require.NoError(t, err)

	tr := trainer.NewBoostedTrainer([]string{"a"}, "", trainer.BoostParams{Estimators: 30, MaxDepth: 3, LearningRate: 0.3})
	prep, err := tr.Prepare(f, s)
	require.NoError(t, err)
	require.NoError(t, tr.Fit(prep.XTrain, prep.YTrain))

	m, err := tr.Evaluate(prep.XTest, prep.YTest)
	require.NoError(t, err)
	assert.Greater(t, m.Accuracy, 0.9)
	require.NotNil(t, m.ROCAUC)

	// Boosted pipelines persist like any other variant.
	path := filepath.Join(t.TempDir(), "boosted.gob")
	require.NoError(t, tr.Save(path))

	restored := trainer.NewBoostedTrainer([]string{"a"}, "", trainer.BoostParams{})
	require.NoError(t, restored.Load(path))
	got, err := restored.Predict(prep.XTest)
	require.NoError(t, err)

	want, err := tr.Predict(prep.XTest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
