package trainer

import (
	"math"

	"idxcast/internal/errors"
)

// LogisticRegression is a binary logistic classifier fitted with full-batch
// gradient descent. Deterministic for fixed input.
type LogisticRegression struct {
	Weights   []float64
	Intercept float64

	LearningRate float64
	Iterations   int
}

// NewLogisticRegression returns a classifier with standard settings.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Iterations: 1000}
}

// Fit learns weights by minimizing logistic loss.
func (l *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.NewInvalidInput("empty training set")
	}
	n := len(X)
	k := len(X[0])
	l.Weights = make([]float64, k)
	l.Intercept = 0

	lr := l.LearningRate
	if lr <= 0 {
		lr = 0.1
	}
	iters := l.Iterations
	if iters <= 0 {
		iters = 1000
	}

	gradW := make([]float64, k)
	for it := 0; it < iters; it++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i := 0; i < n; i++ {
			residual := sigmoid(l.decision(X[i])) - float64(y[i])
			for j := 0; j < k; j++ {
				gradW[j] += residual * X[i][j]
			}
			gradB += residual
		}
		for j := 0; j < k; j++ {
			l.Weights[j] -= lr * gradW[j] / float64(n)
		}
		l.Intercept -= lr * gradB / float64(n)
	}
	return nil
}

// Predict thresholds the probability estimate at 0.5.
func (l *LogisticRegression) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if sigmoid(l.decision(row)) >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

// PredictProba returns P(class=1) per row.
func (l *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(l.decision(row))
	}
	return out
}

func (l *LogisticRegression) decision(row []float64) float64 {
	z := l.Intercept
	for j, w := range l.Weights {
		if j < len(row) {
			z += w * row[j]
		}
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// LogisticTrainer is the linear variant: standard scaling ahead of logistic
// regression.
type LogisticTrainer struct {
	Base
	LearningRate float64
	Iterations   int
}

// NewLogisticTrainer creates the logistic variant over the given features.
func NewLogisticTrainer(features []string, target string) *LogisticTrainer {
	t := &LogisticTrainer{LearningRate: 0.1, Iterations: 1000}
	t.Base = NewBase("logistic", features, target, func() (*Pipeline, error) {
		clf := NewLogisticRegression()
		clf.LearningRate = t.LearningRate
		clf.Iterations = t.Iterations
		return NewPipeline(clf, &StandardScaler{}), nil
	})
	return t
}
