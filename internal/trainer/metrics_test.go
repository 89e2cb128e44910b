package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		y    []int
		pred []int
		want float64
	}{
		{"all correct", []int{0, 1, 1}, []int{0, 1, 1}, 1.0},
		{"half correct", []int{0, 1, 0, 1}, []int{0, 0, 1, 1}, 0.5},
		{"none correct", []int{1, 1}, []int{0, 0}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accuracy(tt.y, tt.pred))
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	y := []int{0, 0, 1, 1, 1, 0}
	pred := []int{0, 1, 1, 0, 1, 0}

	m := ConfusionMatrix(y, pred)

	assert.Equal(t, 2, m[0][0], "true negatives")
	assert.Equal(t, 1, m[0][1], "false positives")
	assert.Equal(t, 1, m[1][0], "false negatives")
	assert.Equal(t, 2, m[1][1], "true positives")
}

func TestClassificationReport(t *testing.T) {
	y := []int{0, 0, 1, 1}
	pred := []int{0, 1, 1, 1}

	report := ClassificationReport(y, pred)

	assert.Contains(t, report, "precision")
	assert.Contains(t, report, "recall")
	assert.Contains(t, report, "f1-score")
	assert.Contains(t, report, "support")
	assert.Contains(t, report, "accuracy")
	// Class 1: precision 2/3, recall 1.
	assert.Contains(t, report, "0.6667")
	assert.Contains(t, report, "1.0000")
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		y      []int
		scores []float64
		want   float64
	}{
		{
			name:   "perfect ranking",
			y:      []int{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "inverted ranking",
			y:      []int{0, 0, 1, 1},
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "uninformative ties",
			y:      []int{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "partial ordering",
			y:      []int{0, 1, 0, 1},
			scores: []float64{0.3, 0.32, 0.35, 0.4},
			want:   0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ROCAUC(tt.y, tt.scores), 1e-9)
		})
	}
}

func TestROCAUC_MatchesRankFormulaOnTies(t *testing.T) {
	y := []int{1, 0, 1, 0, 1}
	scores := []float64{0.7, 0.7, 0.9, 0.2, 0.2}

	// Ranks ascending: 0.2,0.2 -> avg 1.5; 0.7,0.7 -> avg 3.5; 0.9 -> 5.
	// Positive rank sum = 1.5 + 3.5 + 5 = 10; U = 10 - 3*4/2 = 4; AUC = 4/6.
	auc := ROCAUC(y, scores)
	require.InDelta(t, 4.0/6.0, auc, 1e-12)
}
