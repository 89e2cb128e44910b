package trainer

import (
	"math"
	"sort"
)

// StandardScaler centers each column to zero mean and unit variance.
// Constant columns keep a unit scale so they map to zero instead of NaN.
type StandardScaler struct {
	Means  []float64
	Scales []float64
}

// Fit learns per-column mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	k := len(X[0])
	s.Means = make([]float64, k)
	s.Scales = make([]float64, k)

	for j := 0; j < k; j++ {
		sum := 0.0
		for i := range X {
			sum += X[i][j]
		}
		mean := sum / float64(len(X))

		variance := 0.0
		for i := range X {
			d := X[i][j] - mean
			variance += d * d
		}
		scale := math.Sqrt(variance / float64(len(X)))
		if scale == 0 {
			scale = 1
		}
		s.Means[j] = mean
		s.Scales[j] = scale
	}
}

// Apply returns the standardized copy of X.
func (s *StandardScaler) Apply(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Means) {
				scaled[j] = (v - s.Means[j]) / s.Scales[j]
			} else {
				scaled[j] = v
			}
		}
		out[i] = scaled
	}
	return out
}

// ColumnEncoder one-hot encodes selected categorical columns (first category
// dropped, unseen categories ignored) and passes the remaining columns
// through unchanged. Passthrough columns come first in the output, matching
// the order they appear in the input.
type ColumnEncoder struct {
	CategoricalIdx []int
	// Categories[c] holds the sorted distinct values seen at fit time for
	// the c-th categorical column.
	Categories [][]float64
}

// NewColumnEncoder creates an encoder over the given categorical column indices.
func NewColumnEncoder(categoricalIdx []int) *ColumnEncoder {
	return &ColumnEncoder{CategoricalIdx: append([]int(nil), categoricalIdx...)}
}

// Fit learns the category vocabulary of each categorical column.
func (e *ColumnEncoder) Fit(X [][]float64) {
	e.Categories = make([][]float64, len(e.CategoricalIdx))
	for c, j := range e.CategoricalIdx {
		seen := make(map[float64]bool)
		for i := range X {
			if j < len(X[i]) {
				seen[X[i][j]] = true
			}
		}
		cats := make([]float64, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Float64s(cats)
		e.Categories[c] = cats
	}
}

// Apply encodes X: passthrough columns in input order, then one-hot blocks
// per categorical column with the first category dropped.
func (e *ColumnEncoder) Apply(X [][]float64) [][]float64 {
	catSet := make(map[int]int, len(e.CategoricalIdx))
	for c, j := range e.CategoricalIdx {
		catSet[j] = c
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		var encoded []float64
		for j, v := range row {
			if _, isCat := catSet[j]; !isCat {
				encoded = append(encoded, v)
			}
		}
		for _, j := range e.CategoricalIdx {
			c := catSet[j]
			cats := e.Categories[c]
			var v float64
			if j < len(row) {
				v = row[j]
			}
			// Drop-first: one indicator per category after the first.
			for k := 1; k < len(cats); k++ {
				if v == cats[k] {
					encoded = append(encoded, 1)
				} else {
					encoded = append(encoded, 0)
				}
			}
		}
		out[i] = encoded
	}
	return out
}
