// Package trainer provides a uniform lifecycle over interchangeable binary
// classifiers: prepare data with a leakage-safe split, build a preprocessing
// pipeline, fit, evaluate, predict and persist. Variants differ only in the
// pipeline they build.
package trainer

import (
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
	"idxcast/internal/split"
)

// DefaultTarget is the label column trainers fit against.
const DefaultTarget = "price_up"

// ErrNotImplemented is returned by the base contract when a variant has not
// supplied a pipeline builder.
var ErrNotImplemented = stderrors.New("trainer: build_pipeline must be implemented by a concrete variant")

// Prepared bundles the aligned train/test projections produced by Prepare.
type Prepared struct {
	XTrain [][]float64
	XTest  [][]float64
	YTrain []int
	YTest  []int

	TrainDates []time.Time
	TestDates  []time.Time
}

// Trainer is the shared contract over all classifier families.
type Trainer interface {
	Name() string
	Features() []string
	Prepare(f *dataset.Frame, s *split.Splitter) (Prepared, error)
	BuildPipeline() (*Pipeline, error)
	Fit(X [][]float64, y []int) error
	Evaluate(X [][]float64, y []int) (Metrics, error)
	Predict(X [][]float64) ([]int, error)
	Save(path string) error
	Load(path string) error
}

// Base carries the lifecycle shared by every variant. Concrete variants embed
// it and supply a pipeline builder; everything else is composition, not
// inheritance.
type Base struct {
	name     string
	features []string
	target   string

	build    func() (*Pipeline, error)
	pipeline *Pipeline
}

// NewBase creates the shared trainer state. The builder may be nil, in which
// case BuildPipeline fails with ErrNotImplemented.
func NewBase(name string, features []string, target string, build func() (*Pipeline, error)) Base {
	if target == "" {
		target = DefaultTarget
	}
	return Base{name: name, features: append([]string(nil), features...), target: target, build: build}
}

// Name returns the variant name.
func (b *Base) Name() string { return b.name }

// Features returns the feature columns the model trains on.
func (b *Base) Features() []string { return append([]string(nil), b.features...) }

// Target returns the label column name.
func (b *Base) Target() string { return b.target }

// Prepare projects the frame onto the feature and target columns, applies the
// chronological splitter to the features, and aligns labels to the resulting
// partitions by date.
func (b *Base) Prepare(f *dataset.Frame, s *split.Splitter) (Prepared, error) {
	if f == nil {
		return Prepared{}, errors.NewInvalidInput("frame is nil")
	}
	X, err := f.Select(b.features)
	if err != nil {
		return Prepared{}, fmt.Errorf("project features: %w", err)
	}
	target, ok := f.Column(b.target)
	if !ok {
		return Prepared{}, errors.NewTargetMissing(b.target)
	}

	labelByDate := make(map[time.Time]int, f.Len())
	for i := 0; i < f.Len(); i++ {
		labelByDate[f.Date(i)] = int(math.Round(target[i]))
	}

	res, err := s.Split(X)
	if err != nil {
		return Prepared{}, err
	}

	xTrain, err := res.Train.Matrix(b.features)
	if err != nil {
		return Prepared{}, err
	}
	xTest, err := res.Test.Matrix(b.features)
	if err != nil {
		return Prepared{}, err
	}

	prep := Prepared{
		XTrain:     xTrain,
		XTest:      xTest,
		YTrain:     make([]int, res.Train.Len()),
		YTest:      make([]int, res.Test.Len()),
		TrainDates: res.Train.Dates(),
		TestDates:  res.Test.Dates(),
	}
	for i, d := range prep.TrainDates {
		prep.YTrain[i] = labelByDate[d]
	}
	for i, d := range prep.TestDates {
		prep.YTest[i] = labelByDate[d]
	}
	return prep, nil
}

// BuildPipeline constructs the variant's preprocessing + classifier pipeline.
func (b *Base) BuildPipeline() (*Pipeline, error) {
	if b.build == nil {
		return nil, ErrNotImplemented
	}
	return b.build()
}

// Fit lazily builds the pipeline if absent and fits it in place. A failed
// build or fit leaves any previously fitted pipeline untouched.
func (b *Base) Fit(X [][]float64, y []int) error {
	p := b.pipeline
	if p == nil {
		built, err := b.BuildPipeline()
		if err != nil {
			return err
		}
		p = built
	}
	if err := p.Fit(X, y); err != nil {
		return fmt.Errorf("fit %s: %w", b.name, err)
	}
	b.pipeline = p
	return nil
}

// Predict delegates to the fitted pipeline.
func (b *Base) Predict(X [][]float64) ([]int, error) {
	if b.pipeline == nil || !b.pipeline.Fitted {
		return nil, errors.NewNotFitted("predict")
	}
	return b.pipeline.Predict(X), nil
}

// Evaluate scores the fitted pipeline on a held-out set. ROC-AUC is reported
// only when the classifier estimates probabilities and both classes occur in
// y; its absence is not an error.
func (b *Base) Evaluate(X [][]float64, y []int) (Metrics, error) {
	pred, err := b.Predict(X)
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		Model:                b.name,
		Accuracy:             Accuracy(y, pred),
		ConfusionMatrix:      ConfusionMatrix(y, pred),
		ClassificationReport: ClassificationReport(y, pred),
	}
	if proba, ok := b.pipeline.PredictProba(X); ok && hasBothClasses(y) {
		auc := ROCAUC(y, proba)
		m.ROCAUC = &auc
	}
	return m, nil
}

// Pipeline exposes the fitted pipeline, nil before Fit.
func (b *Base) Pipeline() *Pipeline { return b.pipeline }

// Save persists the fitted pipeline as an opaque blob, creating parent
// directories as needed.
func (b *Base) Save(path string) error {
	if b.pipeline == nil || !b.pipeline.Fitted {
		return errors.NewNotFitted("save")
	}
	return savePipeline(path, b.pipeline)
}

// Load restores a previously saved pipeline onto this instance.
func (b *Base) Load(path string) error {
	p, err := loadPipeline(path)
	if err != nil {
		return err
	}
	b.pipeline = p
	return nil
}

func hasBothClasses(y []int) bool {
	var seen [2]bool
	for _, v := range y {
		if v == 0 {
			seen[0] = true
		} else {
			seen[1] = true
		}
	}
	return seen[0] && seen[1]
}
