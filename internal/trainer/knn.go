package trainer

import (
	"math"
	"sort"

	"idxcast/internal/errors"
)

// KNNClassifier predicts by majority vote over the K nearest training rows
// under Euclidean distance. Ties on distance are broken by training order,
// ties on votes favor the negative class at exactly 0.5, matching the
// strict-majority rule.
type KNNClassifier struct {
	K      int
	TrainX [][]float64
	TrainY []int
}

// NewKNNClassifier returns a classifier with k neighbors (default 5).
func NewKNNClassifier(k int) *KNNClassifier {
	if k <= 0 {
		k = 5
	}
	return &KNNClassifier{K: k}
}

// Fit memorizes the training set.
func (c *KNNClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.NewInvalidInput("empty training set")
	}
	c.TrainX = make([][]float64, len(X))
	for i, row := range X {
		c.TrainX[i] = append([]float64(nil), row...)
	}
	c.TrainY = append([]int(nil), y...)
	return nil
}

// Predict labels each row by neighbor majority.
func (c *KNNClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if c.positiveFraction(row) > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// PredictProba scores each row with the positive fraction of its neighbors.
func (c *KNNClassifier) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = c.positiveFraction(row)
	}
	return out
}

func (c *KNNClassifier) positiveFraction(row []float64) float64 {
	k := c.K
	if k > len(c.TrainX) {
		k = len(c.TrainX)
	}
	if k == 0 {
		return 0
	}

	type neighbor struct {
		dist  float64
		index int
	}
	neighbors := make([]neighbor, len(c.TrainX))
	for i, train := range c.TrainX {
		neighbors[i] = neighbor{dist: euclidean(row, train), index: i}
	}
	sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

	positives := 0
	for _, nb := range neighbors[:k] {
		if c.TrainY[nb.index] == 1 {
			positives++
		}
	}
	return float64(positives) / float64(k)
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		if j < len(b) {
			d := a[j] - b[j]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// KNNTrainer is the distance-based variant: standard scaling ahead of KNN.
type KNNTrainer struct {
	Base
	Neighbors int
}

// NewKNNTrainer creates the KNN variant over the given features.
func NewKNNTrainer(features []string, target string, neighbors int) *KNNTrainer {
	if neighbors <= 0 {
		neighbors = 5
	}
	t := &KNNTrainer{Neighbors: neighbors}
	t.Base = NewBase("knn", features, target, func() (*Pipeline, error) {
		return NewPipeline(NewKNNClassifier(t.Neighbors), &StandardScaler{}), nil
	})
	return t
}
