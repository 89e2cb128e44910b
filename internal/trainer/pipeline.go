package trainer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"idxcast/internal/errors"
)

// Transform is a fitted preprocessing step applied before the classifier.
type Transform interface {
	Fit(X [][]float64)
	Apply(X [][]float64) [][]float64
}

// Classifier is a binary classifier over float64 feature rows.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
}

// ProbabilityEstimator is implemented by classifiers that can score
// P(class=1) per row; ROC-AUC is only available for these.
type ProbabilityEstimator interface {
	PredictProba(X [][]float64) []float64
}

// Pipeline chains preprocessing transforms with a classifier. Fields are
// exported for gob persistence; the struct is an opaque artifact to callers.
type Pipeline struct {
	Transforms []Transform
	Classifier Classifier
	Fitted     bool
}

// NewPipeline assembles an unfitted pipeline.
func NewPipeline(classifier Classifier, transforms ...Transform) *Pipeline {
	return &Pipeline{Transforms: transforms, Classifier: classifier}
}

// Fit fits each transform on the (already transformed) training data in
// order, then fits the classifier.
func (p *Pipeline) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.NewInvalidInput("empty training set")
	}
	if len(X) != len(y) {
		return errors.NewInvalidInput(fmt.Sprintf("feature/label length mismatch: %d vs %d", len(X), len(y)))
	}
	cur := X
	for _, tr := range p.Transforms {
		tr.Fit(cur)
		cur = tr.Apply(cur)
	}
	if err := p.Classifier.Fit(cur, y); err != nil {
		return err
	}
	p.Fitted = true
	return nil
}

// Predict runs the transforms and classifier over X.
func (p *Pipeline) Predict(X [][]float64) []int {
	return p.Classifier.Predict(p.transform(X))
}

// PredictProba returns positive-class probabilities when the classifier
// supports them.
func (p *Pipeline) PredictProba(X [][]float64) ([]float64, bool) {
	est, ok := p.Classifier.(ProbabilityEstimator)
	if !ok {
		return nil, false
	}
	return est.PredictProba(p.transform(X)), true
}

func (p *Pipeline) transform(X [][]float64) [][]float64 {
	cur := X
	for _, tr := range p.Transforms {
		cur = tr.Apply(cur)
	}
	return cur
}

// savePipeline writes the pipeline to path as a gob blob. The file handle is
// closed even when encoding fails.
func savePipeline(path string, p *Pipeline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("create model directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("create model file", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(p); err != nil {
		return errors.NewStorageError("encode pipeline", err)
	}
	return nil
}

// loadPipeline restores a pipeline blob written by savePipeline.
func loadPipeline(path string) (*Pipeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("open model file", err)
	}
	defer file.Close()

	var p Pipeline
	if err := gob.NewDecoder(file).Decode(&p); err != nil {
		return nil, errors.NewStorageError("decode pipeline", err)
	}
	return &p, nil
}

func init() {
	gob.Register(&StandardScaler{})
	gob.Register(&ColumnEncoder{})
	gob.Register(&LogisticRegression{})
	gob.Register(&KNNClassifier{})
	gob.Register(&DecisionTree{})
}
