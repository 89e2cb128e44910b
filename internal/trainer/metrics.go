package trainer

import (
	"fmt"
	"sort"
	"strings"
)

// Metrics holds the evaluation of one fitted model on a held-out set.
// ROCAUC is nil when the model has no probability estimates or the test set
// contains a single class.
type Metrics struct {
	Model                string   `json:"model"`
	Accuracy             float64  `json:"accuracy"`
	ConfusionMatrix      [2][2]int `json:"confusion_matrix"`
	ClassificationReport string   `json:"classification_report"`
	ROCAUC               *float64 `json:"roc_auc,omitempty"`
}

// Accuracy returns the fraction of matching labels.
func Accuracy(y, pred []int) float64 {
	if len(y) == 0 {
		return 0
	}
	correct := 0
	for i := range y {
		if y[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// ConfusionMatrix returns counts indexed [actual][predicted] over classes {0, 1}.
func ConfusionMatrix(y, pred []int) [2][2]int {
	var m [2][2]int
	for i := range y {
		a, p := clampClass(y[i]), clampClass(pred[i])
		m[a][p]++
	}
	return m
}

func clampClass(v int) int {
	if v > 0 {
		return 1
	}
	return 0
}

// ClassificationReport renders per-class precision, recall, F1 and support.
func ClassificationReport(y, pred []int) string {
	m := ConfusionMatrix(y, pred)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support"))
	for _, class := range []int{0, 1} {
		tp := m[class][class]
		predicted := m[0][class] + m[1][class]
		actual := m[class][0] + m[class][1]

		precision := ratio(tp, predicted)
		recall := ratio(tp, actual)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		b.WriteString(fmt.Sprintf("%12d %10.4f %10.4f %10.4f %10d\n", class, precision, recall, f1, actual))
	}
	b.WriteString(fmt.Sprintf("\n%12s %10s %10s %10.4f %10d\n", "accuracy", "", "", Accuracy(y, pred), len(y)))
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCAUC computes the area under the ROC curve from positive-class scores
// using the rank statistic, with tied scores assigned their average rank.
// Callers must ensure y contains both classes.
func ROCAUC(y []int, scores []float64) float64 {
	type scored struct {
		score float64
		label int
	}
	items := make([]scored, len(y))
	for i := range y {
		items[i] = scored{score: scores[i], label: clampClass(y[i])}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].score < items[j].score })

	nPos, nNeg := 0, 0
	for _, it := range items {
		if it.label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}

	rankSumPos := 0.0
	i := 0
	for i < len(items) {
		j := i
		for j < len(items) && items[j].score == items[i].score {
			j++
		}
		// Ranks are 1-based; tied block [i, j) shares the average rank.
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if items[k].label == 1 {
				rankSumPos += avgRank
			}
		}
		i = j
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg))
}
