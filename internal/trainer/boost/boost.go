// Package boost provides the gradient-boosted classifier backend. Importing
// it (blank import is enough) registers the backend with the trainer package;
// without the import, building the boosted pipeline fails with a
// MissingDependency error.
package boost

import (
	"encoding/gob"
	"math"
	"sort"

	"idxcast/internal/errors"
	"idxcast/internal/trainer"
)

func init() {
	trainer.RegisterBoostBackend(backend{})
	gob.Register(&GradientBoosting{})
}

type backend struct{}

func (backend) NewClassifier(params trainer.BoostParams) trainer.Classifier {
	return &GradientBoosting{
		Estimators:   params.Estimators,
		MaxDepth:     params.MaxDepth,
		LearningRate: params.LearningRate,
	}
}

// GradientBoosting is a binary classifier boosting shallow regression trees
// on logistic loss, with Newton leaf values. Deterministic.
type GradientBoosting struct {
	Estimators   int
	MaxDepth     int
	LearningRate float64

	InitScore float64
	Trees     []*RegressionNode
}

// RegressionNode is one node of a fitted boosting tree; leaves carry the
// additive score contribution.
type RegressionNode struct {
	Feature   int
	Threshold float64
	Left      *RegressionNode
	Right     *RegressionNode
	IsLeaf    bool
	Value     float64
}

// Fit boosts trees on the logistic-loss gradient.
func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.NewInvalidInput("empty training set")
	}
	n := len(X)

	positives := 0
	for _, v := range y {
		positives += v
	}
	// Log-odds prior; clamp single-class data away from infinity.
	p := (float64(positives) + 0.5) / (float64(n) + 1)
	g.InitScore = math.Log(p / (1 - p))
	g.Trees = g.Trees[:0]

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.InitScore
	}

	residuals := make([]float64, n)
	hessians := make([]float64, n)
	idx := make([]int, n)
	for m := 0; m < g.Estimators; m++ {
		for i := 0; i < n; i++ {
			prob := sigmoid(scores[i])
			residuals[i] = float64(y[i]) - prob
			hessians[i] = prob * (1 - prob)
			idx[i] = i
		}
		tree := growRegressionTree(X, residuals, hessians, idx, 0, g.MaxDepth)
		g.Trees = append(g.Trees, tree)
		for i := 0; i < n; i++ {
			scores[i] += g.LearningRate * evalTree(tree, X[i])
		}
	}
	return nil
}

// Predict thresholds the boosted probability at 0.5.
func (g *GradientBoosting) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if sigmoid(g.score(row)) >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

// PredictProba returns P(class=1) per row.
func (g *GradientBoosting) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(g.score(row))
	}
	return out
}

func (g *GradientBoosting) score(row []float64) float64 {
	score := g.InitScore
	for _, tree := range g.Trees {
		score += g.LearningRate * evalTree(tree, row)
	}
	return score
}

func evalTree(node *RegressionNode, row []float64) float64 {
	for node != nil && !node.IsLeaf {
		if node.Feature < len(row) && row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	if node == nil {
		return 0
	}
	return node.Value
}

// growRegressionTree fits residuals by variance-reducing splits; leaf values
// are the Newton step sum(residual)/sum(hessian).
func growRegressionTree(X [][]float64, residuals, hessians []float64, idx []int, depth, maxDepth int) *RegressionNode {
	if depth >= maxDepth || len(idx) < 2 {
		return leafNode(residuals, hessians, idx)
	}

	feature, threshold, ok := bestRegressionSplit(X, residuals, idx)
	if !ok {
		return leafNode(residuals, hessians, idx)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(residuals, hessians, idx)
	}

	return &RegressionNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growRegressionTree(X, residuals, hessians, left, depth+1, maxDepth),
		Right:     growRegressionTree(X, residuals, hessians, right, depth+1, maxDepth),
	}
}

func leafNode(residuals, hessians []float64, idx []int) *RegressionNode {
	sumR, sumH := 0.0, 0.0
	for _, i := range idx {
		sumR += residuals[i]
		sumH += hessians[i]
	}
	value := 0.0
	if sumH > 1e-12 {
		value = sumR / sumH
	}
	return &RegressionNode{IsLeaf: true, Value: value}
}

func bestRegressionSplit(X [][]float64, residuals []float64, idx []int) (int, float64, bool) {
	k := len(X[idx[0]])
	baseSSE := sse(residuals, idx)
	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, 0, len(idx))
	for j := 0; j < k; j++ {
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][j])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			var left, right []int
			for _, i := range idx {
				if X[i][j] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			gain := baseSSE - sse(residuals, left) - sse(residuals, right)
			if gain > bestGain {
				bestGain = gain
				bestFeature = j
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func sse(residuals []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := 0.0
	for _, i := range idx {
		mean += residuals[i]
	}
	mean /= float64(len(idx))

	out := 0.0
	for _, i := range idx {
		d := residuals[i] - mean
		out += d * d
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
