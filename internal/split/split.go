// Package split partitions time-ordered frames into train/test sets without
// shuffling, so no future-dated row can leak into training.
package split

import (
	"fmt"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
)

// Result holds the chronological partitions: every train date precedes every
// test date, and the concatenation of both reconstructs the input exactly.
type Result struct {
	Train *dataset.Frame
	Test  *dataset.Frame
}

// Splitter cuts a frame at floor(n * (1 - TestFraction)). The cut is clamped
// to [1, n-1] so both partitions are non-empty for n >= 2, rather than
// silently propagating a degenerate split.
type Splitter struct {
	TestFraction float64
}

// New validates the fraction and returns a splitter.
func New(testFraction float64) (*Splitter, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewInvalidConfiguration(
			fmt.Sprintf("test fraction must be in (0, 1), got %v", testFraction))
	}
	return &Splitter{TestFraction: testFraction}, nil
}

// Split partitions the frame into a training prefix and testing suffix.
func (s *Splitter) Split(f *dataset.Frame) (Result, error) {
	if s.TestFraction <= 0 || s.TestFraction >= 1 {
		return Result{}, errors.NewInvalidConfiguration(
			fmt.Sprintf("test fraction must be in (0, 1), got %v", s.TestFraction))
	}
	if f == nil || f.Len() == 0 {
		return Result{}, errors.NewInvalidInput("series is empty")
	}
	if f.Len() < 2 {
		return Result{}, errors.NewInvalidInput("series needs at least 2 rows to split")
	}
	if !f.IsSortedByDate() {
		return Result{}, errors.NewInvalidInput("series is not sorted ascending by date")
	}

	n := f.Len()
	cut := int(float64(n) * (1 - s.TestFraction))
	if cut < 1 {
		cut = 1
	}
	if cut > n-1 {
		cut = n - 1
	}

	return Result{
		Train: f.Slice(0, cut),
		Test:  f.Slice(cut, n),
	}, nil
}
