package features

import (
	"fmt"
	"math"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
)

// Engineered column names. Window-parameterized names are produced by
// SMAName/EMAName/LagName.
const (
	ColPctChange    = "pct_change"
	ColRSI          = "rsi"
	ColMACD         = "macd"
	ColMACDSignal   = "macd_signal"
	ColMACDHist     = "macd_hist"
	ColDayOfWeek    = "dow"
	ColMonth        = "month"
	ColFutureReturn = "future_return"
	ColPriceUp      = "price_up"
)

// MACD spans are fixed, independent of the short/long windows.
const (
	macdFastSpan   = 12
	macdSlowSpan   = 26
	macdSignalSpan = 9
)

// SMAName returns the column name of the simple moving average over window w.
func SMAName(w int) string { return fmt.Sprintf("sma_%d", w) }

// EMAName returns the column name of the exponential moving average over span w.
func EMAName(w int) string { return fmt.Sprintf("ema_%d", w) }

// LagName returns the column name of the i-th percent-change lag.
func LagName(i int) string { return fmt.Sprintf("lag_%d", i) }

// Config holds the tunable windows of the feature engine.
type Config struct {
	ShortWindow int
	LongWindow  int
	RSIPeriod   int
	TargetShift int
}

// DefaultConfig returns the standard window configuration.
func DefaultConfig() Config {
	return Config{ShortWindow: 5, LongWindow: 20, RSIPeriod: 14, TargetShift: 1}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ShortWindow <= 0 {
		c.ShortWindow = d.ShortWindow
	}
	if c.LongWindow <= 0 {
		c.LongWindow = d.LongWindow
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = d.RSIPeriod
	}
	if c.TargetShift <= 0 {
		c.TargetShift = d.TargetShift
	}
	return c
}

// Engine derives technical-indicator columns and a forward-looking label from
// a price frame. Every method returns a new frame; the input is never
// mutated. Undefined values (insufficient history, zero-movement RSI, missing
// future row) are NaN sentinels; dropping such rows is the caller's job.
type Engine struct {
	cfg Config
}

// New creates an Engine, filling unset config fields with defaults.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// CandidateColumns lists the engineered feature columns this configuration
// produces, in pipeline order, excluding the label columns.
func (e *Engine) CandidateColumns(lags int) []string {
	cols := []string{
		ColPctChange,
		SMAName(e.cfg.ShortWindow), SMAName(e.cfg.LongWindow),
		EMAName(e.cfg.ShortWindow), EMAName(e.cfg.LongWindow),
		ColRSI, ColMACD, ColMACDSignal, ColMACDHist,
	}
	for i := 1; i <= lags; i++ {
		cols = append(cols, LagName(i))
	}
	return append(cols, ColDayOfWeek, ColMonth)
}

// Engineer runs the full derivation: percent change, SMA, EMA, RSI, MACD,
// lags, temporal features and, when includeTarget is set, the forward-return
// label pair. Deterministic for fixed input and configuration.
func (e *Engine) Engineer(f *dataset.Frame, includeTarget bool, lags int) (*dataset.Frame, error) {
	if err := e.validate(f); err != nil {
		return nil, err
	}
	if lags <= 0 {
		lags = 3
	}
	out := e.PctChange(f)
	out = e.SMA(out)
	out = e.EMA(out)
	out = e.RSI(out)
	out = e.MACD(out)
	out = e.Lag(out, lags)
	out = e.Temporal(out)
	if includeTarget {
		out = e.AddTargets(out)
	}
	return out, nil
}

func (e *Engine) validate(f *dataset.Frame) error {
	if f == nil || f.Len() == 0 {
		return errors.NewInvalidInput("series is empty")
	}
	if !f.HasColumn(dataset.ColClose) {
		return errors.NewInvalidInput("series has no close column")
	}
	if !f.IsSortedByDate() {
		return errors.NewInvalidInput("series is not sorted ascending by date")
	}
	return nil
}

// PctChange adds the close-to-close percent change; undefined for the first row.
func (e *Engine) PctChange(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	col := make([]float64, len(closes))
	if len(col) > 0 {
		col[0] = math.NaN()
	}
	for t := 1; t < len(closes); t++ {
		col[t] = (closes[t]/closes[t-1] - 1) * 100
	}
	out := f.Clone()
	out.SetColumn(ColPctChange, col)
	return out
}

// SMA adds trailing means of close over the short and long windows; undefined
// until the window is full.
func (e *Engine) SMA(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	out := f.Clone()
	out.SetColumn(SMAName(e.cfg.ShortWindow), rollingMean(closes, e.cfg.ShortWindow))
	out.SetColumn(SMAName(e.cfg.LongWindow), rollingMean(closes, e.cfg.LongWindow))
	return out
}

// EMA adds exponentially weighted means of close over the short and long
// spans, warm-started at the first value, without bias adjustment.
func (e *Engine) EMA(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	out := f.Clone()
	out.SetColumn(EMAName(e.cfg.ShortWindow), ewma(closes, e.cfg.ShortWindow))
	out.SetColumn(EMAName(e.cfg.LongWindow), ewma(closes, e.cfg.LongWindow))
	return out
}

// RSI adds the simple relative strength index: rolling mean of upward deltas
// over rolling mean of downward-delta magnitudes, mapped to 100 - 100/(1+rs).
// A zero downward average with zero upward average yields NaN; IEEE division
// keeps this a sentinel rather than a crash.
func (e *Engine) RSI(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	n := len(closes)
	period := e.cfg.RSIPeriod

	up := make([]float64, n)
	down := make([]float64, n)
	up[0] = math.NaN()
	down[0] = math.NaN()
	for t := 1; t < n; t++ {
		delta := closes[t] - closes[t-1]
		up[t] = math.Max(delta, 0)
		down[t] = -math.Min(delta, 0)
	}

	avgUp := rollingMean(up, period)
	avgDown := rollingMean(down, period)

	col := make([]float64, n)
	for t := range col {
		rs := avgUp[t] / avgDown[t]
		col[t] = 100 - 100/(1+rs)
	}
	out := f.Clone()
	out.SetColumn(ColRSI, col)
	return out
}

// MACD adds the EMA(12)-EMA(26) trend line, its EMA(9) signal and their
// difference. Spans are fixed regardless of the configured windows.
func (e *Engine) MACD(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	fast := ewma(closes, macdFastSpan)
	slow := ewma(closes, macdSlowSpan)

	macd := make([]float64, len(closes))
	for t := range macd {
		macd[t] = fast[t] - slow[t]
	}
	signal := ewma(macd, macdSignalSpan)
	hist := make([]float64, len(macd))
	for t := range hist {
		hist[t] = macd[t] - signal[t]
	}

	out := f.Clone()
	out.SetColumn(ColMACD, macd)
	out.SetColumn(ColMACDSignal, signal)
	out.SetColumn(ColMACDHist, hist)
	return out
}

// Lag adds lag_1..lag_n of the percent-change column.
func (e *Engine) Lag(f *dataset.Frame, n int) *dataset.Frame {
	src, ok := f.Column(ColPctChange)
	if !ok {
		src = make([]float64, f.Len())
		for t := range src {
			src[t] = math.NaN()
		}
	}
	out := f.Clone()
	for i := 1; i <= n; i++ {
		col := make([]float64, len(src))
		for t := range col {
			if t < i {
				col[t] = math.NaN()
			} else {
				col[t] = src[t-i]
			}
		}
		out.SetColumn(LagName(i), col)
	}
	return out
}

// Temporal adds day-of-week (Monday=0) and month (1-12) columns.
func (e *Engine) Temporal(f *dataset.Frame) *dataset.Frame {
	n := f.Len()
	dow := make([]float64, n)
	month := make([]float64, n)
	for t := 0; t < n; t++ {
		d := f.Date(t)
		dow[t] = float64((int(d.Weekday()) + 6) % 7)
		month[t] = float64(d.Month())
	}
	out := f.Clone()
	out.SetColumn(ColDayOfWeek, dow)
	out.SetColumn(ColMonth, month)
	return out
}

// AddTargets adds future_return over the configured shift and the binary
// price_up label. The last shift rows have NaN future_return; their price_up
// is 0, so callers requiring labels must drop rows on future_return.
func (e *Engine) AddTargets(f *dataset.Frame) *dataset.Frame {
	closes, _ := f.Column(dataset.ColClose)
	n := len(closes)
	shift := e.cfg.TargetShift

	future := make([]float64, n)
	priceUp := make([]float64, n)
	for t := 0; t < n; t++ {
		if t+shift < n {
			future[t] = (closes[t+shift]/closes[t] - 1) * 100
		} else {
			future[t] = math.NaN()
		}
		if future[t] > 0 {
			priceUp[t] = 1
		}
	}
	out := f.Clone()
	out.SetColumn(ColFutureReturn, future)
	out.SetColumn(ColPriceUp, priceUp)
	return out
}

// rollingMean computes a trailing mean over the last w values; NaN until the
// window is full or when any value in the window is NaN.
func rollingMean(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for t := range out {
		if t < w-1 {
			out[t] = math.NaN()
			continue
		}
		sum := 0.0
		for i := t - w + 1; i <= t; i++ {
			sum += values[i]
		}
		out[t] = sum / float64(w)
	}
	return out
}

// ewma computes an exponentially weighted mean with alpha = 2/(span+1),
// seeded with the first value.
func ewma(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	out[0] = values[0]
	for t := 1; t < len(values); t++ {
		out[t] = alpha*values[t] + (1-alpha)*out[t-1]
	}
	return out
}
