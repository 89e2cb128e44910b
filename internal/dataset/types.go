package dataset

import (
	"time"
)

// Core column names shared across the pipeline. The loader guarantees these
// exist and are non-missing on every row it emits.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// CoreColumns lists the OHLCV columns every cleaned row must carry.
var CoreColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// PriceRow represents one calendar day of one instrument.
type PriceRow struct {
	Date       time.Time `json:"date"`
	StockIndex string    `json:"stock_index"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
}

// indexNames maps raw exchange codes to canonical instrument names.
var indexNames = map[string]string{
	"NYA":       "New York",
	"IXIC":      "NASDAQ",
	"HSI":       "Hong Kong",
	"000001.SS": "Shanghai",
	"N225":      "Tokyo",
	"N100":      "Euronext",
	"399001.SZ": "Shenzhen",
	"GSPTSE":    "Toronto",
	"NSEI":      "India",
	"GDAXI":     "Frankfurt",
	"KS11":      "Korea",
	"SSMI":      "Switzerland",
	"TWII":      "Taiwan",
	"J203.JO":   "Johannesburg",
}

// CanonicalIndexName returns the canonical instrument name for a raw exchange
// code, or the code itself when no mapping exists.
func CanonicalIndexName(code string) string {
	if name, ok := indexNames[code]; ok {
		return name
	}
	return code
}
