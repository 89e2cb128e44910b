package trainer

import (
	"sync"

	"idxcast/internal/errors"
)

// BoostParams are the hyperparameters of the gradient-boosted variant.
type BoostParams struct {
	Estimators   int
	MaxDepth     int
	LearningRate float64
}

// BoostBackend constructs gradient-boosted classifiers. The backend lives in
// an optional subpackage and registers itself on import; the capability check
// happens at pipeline-build time so the trainer family stays usable without it.
type BoostBackend interface {
	NewClassifier(params BoostParams) Classifier
}

var (
	boostMu      sync.RWMutex
	boostBackend BoostBackend
)

// RegisterBoostBackend installs the gradient-boosting backend. Called from
// the backend package's init.
func RegisterBoostBackend(b BoostBackend) {
	boostMu.Lock()
	defer boostMu.Unlock()
	boostBackend = b
}

func currentBoostBackend() BoostBackend {
	boostMu.RLock()
	defer boostMu.RUnlock()
	return boostBackend
}

// BoostedTrainer is the gradient-boosted variant: standard scaling ahead of
// the registered boosting backend.
type BoostedTrainer struct {
	Base
	Params BoostParams
}

// NewBoostedTrainer creates the gradient-boosted variant. Building its
// pipeline fails with MissingDependency when no backend is registered.
func NewBoostedTrainer(features []string, target string, params BoostParams) *BoostedTrainer {
	if params.Estimators <= 0 {
		params.Estimators = 100
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = 6
	}
	if params.LearningRate <= 0 {
		params.LearningRate = 0.1
	}
	t := &BoostedTrainer{Params: params}
	t.Base = NewBase("gradient_boosted", features, target, func() (*Pipeline, error) {
		backend := currentBoostBackend()
		if backend == nil {
			return nil, errors.NewMissingDependency("gradient boosting")
		}
		return NewPipeline(backend.NewClassifier(t.Params), &StandardScaler{}), nil
	})
	return t
}
