package trainer

import (
	"sort"

	"idxcast/internal/errors"
)

// TreeNode is one node of a fitted decision tree. Leaf nodes carry the
// positive-class fraction of the training rows that reached them.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	// Leaf payload
	IsLeaf       bool
	PositiveFrac float64
}

// DecisionTree is a CART classifier splitting on Gini impurity.
type DecisionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	Root            *TreeNode
}

// NewDecisionTree returns a tree with the given depth limit (default 10).
func NewDecisionTree(maxDepth int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	return &DecisionTree{MaxDepth: maxDepth, MinSamplesSplit: 2}
}

// Fit grows the tree greedily, scanning candidate thresholds at midpoints
// between consecutive distinct feature values. Deterministic.
func (t *DecisionTree) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.NewInvalidInput("empty training set")
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.Root = t.grow(X, y, idx, 0)
	return nil
}

func (t *DecisionTree) grow(X [][]float64, y []int, idx []int, depth int) *TreeNode {
	positives := 0
	for _, i := range idx {
		if y[i] == 1 {
			positives++
		}
	}
	frac := float64(positives) / float64(len(idx))

	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit || positives == 0 || positives == len(idx) {
		return &TreeNode{IsLeaf: true, PositiveFrac: frac}
	}

	feature, threshold, ok := t.bestSplit(X, y, idx)
	if !ok {
		return &TreeNode{IsLeaf: true, PositiveFrac: frac}
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
		return &TreeNode{IsLeaf: true, PositiveFrac: frac}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(X, y, left, depth+1),
		Right:     t.grow(X, y, right, depth+1),
	}
}

func (t *DecisionTree) bestSplit(X [][]float64, y []int, idx []int) (int, float64, bool) {
	k := len(X[idx[0]])
	bestGini := gini(y, idx)
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

			nLeft, posLeft, nRight, posRight := 0, 0, 0, 0
			for _, i := range idx {
				if X[i][j] <= threshold {
					nLeft++
					posLeft += y[i]
				} else {
					nRight++
					posRight += y[i]
				}
			}
			weighted := (float64(nLeft)*giniCounts(nLeft, posLeft) +
				float64(nRight)*giniCounts(nRight, posRight)) / float64(len(idx))
			if weighted < bestGini-1e-12 {
				bestGini = weighted
				bestFeature = j
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(y []int, idx []int) float64 {
	positives := 0
	for _, i := range idx {
		positives += y[i]
	}
	return giniCounts(len(idx), positives)
}

func giniCounts(n, positives int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(positives) / float64(n)
	return 2 * p * (1 - p)
}

// Predict labels each row by its leaf majority.
func (t *DecisionTree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if t.leafFraction(row) > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// PredictProba scores each row with its leaf positive fraction.
func (t *DecisionTree) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.leafFraction(row)
	}
	return out
}

func (t *DecisionTree) leafFraction(row []float64) float64 {
	node := t.Root
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
	return node.PositiveFrac
}

// TreeTrainer is the tree variant: one-hot encoding of categorical calendar
// features ahead of a CART classifier; numeric features pass through
// unscaled, as trees are insensitive to monotone scaling.
type TreeTrainer struct {
	Base
	MaxDepth            int
	CategoricalFeatures []string
}

// NewTreeTrainer creates the decision-tree variant. Features listed in
// categorical are one-hot encoded; they must be a subset of features.
func NewTreeTrainer(features []string, target string, maxDepth int, categorical []string) *TreeTrainer {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	t := &TreeTrainer{MaxDepth: maxDepth, CategoricalFeatures: append([]string(nil), categorical...)}
	t.Base = NewBase("decision_tree", features, target, func() (*Pipeline, error) {
		var catIdx []int
		for j, name := range features {
			for _, c := range t.CategoricalFeatures {
				if name == c {
					catIdx = append(catIdx, j)
					break
				}
			}
		}
		return NewPipeline(NewDecisionTree(t.MaxDepth), NewColumnEncoder(catIdx)), nil
	})
	return t
}
