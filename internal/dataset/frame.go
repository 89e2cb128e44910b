package dataset

import (
	"fmt"
	"math"
	"time"

	"idxcast/internal/errors"
)

// Frame is a date-indexed column store of float64 series. Undefined values are
// represented by NaN; no stage of the pipeline mutates a Frame it received,
// every transform returns a fresh copy.
type Frame struct {
	dates []time.Time
	order []string
	cols  map[string][]float64
}

// NewFrame creates an empty frame over the given date index.
func NewFrame(dates []time.Time) *Frame {
	return &Frame{
		dates: append([]time.Time(nil), dates...),
		cols:  make(map[string][]float64),
	}
}

// FrameFromRows builds a frame with the core OHLCV columns from cleaned rows.
func FrameFromRows(rows []PriceRow) *Frame {
	dates := make([]time.Time, len(rows))
	open := make([]float64, len(rows))
	high := make([]float64, len(rows))
	low := make([]float64, len(rows))
	closeCol := make([]float64, len(rows))
	volume := make([]float64, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
		open[i] = r.Open
		high[i] = r.High
		low[i] = r.Low
		closeCol[i] = r.Close
		volume[i] = r.Volume
	}
	f := NewFrame(dates)
	f.SetColumn(ColOpen, open)
	f.SetColumn(ColHigh, high)
	f.SetColumn(ColLow, low)
	f.SetColumn(ColClose, closeCol)
	f.SetColumn(ColVolume, volume)
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.dates)
}

// Dates returns a copy of the date index.
func (f *Frame) Dates() []time.Time {
	return append([]time.Time(nil), f.dates...)
}

// Date returns the date at row i.
func (f *Frame) Date(i int) time.Time {
	return f.dates[i]
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.order...)
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.cols[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), col...), true
}

// At returns the value of the named column at row i, NaN if the column is absent.
func (f *Frame) At(i int, name string) float64 {
	col, ok := f.cols[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// SetColumn stores a column, replacing any existing column of the same name.
// The slice is copied; panics if the length does not match the date index.
func (f *Frame) SetColumn(name string, values []float64) {
	if len(values) != len(f.dates) {
		panic(fmt.Sprintf("dataset: column %q has %d values for %d rows", name, len(values), len(f.dates)))
	}
	if _, exists := f.cols[name]; !exists {
		f.order = append(f.order, name)
	}
	f.cols[name] = append([]float64(nil), values...)
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.dates)
	for _, name := range f.order {
		out.SetColumn(name, f.cols[name])
	}
	return out
}

// Select returns a new frame containing only the named columns, in the given
// order. Fails if any column is absent.
func (f *Frame) Select(names []string) (*Frame, error) {
	out := NewFrame(f.dates)
	for _, name := range names {
		col, ok := f.cols[name]
		if !ok {
			return nil, errors.NewInvalidInput(fmt.Sprintf("column %q not present", name))
		}
		out.SetColumn(name, col)
	}
	return out, nil
}

// FilterComplete returns a new frame keeping only rows where every listed
// column is defined (non-NaN). With no columns given, all columns are checked.
func (f *Frame) FilterComplete(names ...string) *Frame {
	if len(names) == 0 {
		names = f.order
	}
	keep := make([]int, 0, len(f.dates))
	for i := range f.dates {
		complete := true
		for _, name := range names {
			col, ok := f.cols[name]
			if !ok || math.IsNaN(col[i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return f.takeRows(keep)
}

// Slice returns a new frame with rows [i, j).
func (f *Frame) Slice(i, j int) *Frame {
	keep := make([]int, 0, j-i)
	for r := i; r < j; r++ {
		keep = append(keep, r)
	}
	return f.takeRows(keep)
}

func (f *Frame) takeRows(rows []int) *Frame {
	dates := make([]time.Time, len(rows))
	for k, r := range rows {
		dates[k] = f.dates[r]
	}
	out := NewFrame(dates)
	for _, name := range f.order {
		src := f.cols[name]
		col := make([]float64, len(rows))
		for k, r := range rows {
			col[k] = src[r]
		}
		out.SetColumn(name, col)
	}
	return out
}

// IsSortedByDate reports whether the date index is strictly increasing.
func (f *Frame) IsSortedByDate() bool {
	for i := 1; i < len(f.dates); i++ {
		if !f.dates[i-1].Before(f.dates[i]) {
			return false
		}
	}
	return true
}

// Matrix projects the named columns into row-major [][]float64 for model input.
func (f *Frame) Matrix(names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		col, ok := f.cols[name]
		if !ok {
			return nil, errors.NewInvalidInput(fmt.Sprintf("column %q not present", name))
		}
		cols[j] = col
	}
	out := make([][]float64, len(f.dates))
	for i := range f.dates {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		out[i] = row
	}
	return out, nil
}
