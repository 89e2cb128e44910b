package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"idxcast/internal/errors"
)

// LoadOptions bounds the loaded date range. Zero values mean unbounded.
type LoadOptions struct {
	From time.Time
	To   time.Time
}

// Load reads a multi-instrument OHLCV table from a CSV or Excel file, cleans
// it, and returns rows sorted by instrument then ascending date. Cleaning
// drops rows with any missing core field or zero volume and normalizes raw
// exchange codes to canonical instrument names.
func Load(path string, opts LoadOptions) ([]PriceRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return LoadExcel(path, opts)
	default:
		return LoadCSV(path, opts)
	}
}

// LoadCSV reads and cleans a CSV file with a header row.
// Expected columns (case-insensitive): Index,Date,Open,High,Low,Close,Volume.
func LoadCSV(path string, opts LoadOptions) ([]PriceRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewParsingError("open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("read CSV records", err)
	}
	return cleanRecords(filepath.Base(path), records, opts)
}

// LoadExcel reads and cleans the first sheet of an Excel workbook laid out
// like the CSV format.
func LoadExcel(path string, opts LoadOptions) ([]PriceRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("open Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("read sheet %q", sheets[0]), err)
	}
	return cleanRecords(filepath.Base(path), rows, opts)
}

// cleanRecords maps the header, parses each record, and applies the cleaning
// invariants: no missing core field, volume > 0, dates in [From, To], one row
// per instrument per date, ascending date order.
func cleanRecords(source string, records [][]string, opts LoadOptions) ([]PriceRow, error) {
	if len(records) == 0 {
		return nil, errors.NewParsingError("file is empty", nil)
	}

	colIdx, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []PriceRow
	skipped := 0
	for i := 1; i < len(records); i++ {
		row, ok := parseRecord(records[i], colIdx)
		if !ok {
			skipped++
			continue
		}
		if !opts.From.IsZero() && row.Date.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && row.Date.After(opts.To) {
			continue
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		slog.Debug("dropped incomplete rows during load",
			"source", source,
			"dropped", skipped,
			"kept", len(rows),
		)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StockIndex != rows[j].StockIndex {
			return rows[i].StockIndex < rows[j].StockIndex
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	// Keep the first row per (instrument, date); later duplicates are discarded.
	deduped := rows[:0]
	for _, row := range rows {
		n := len(deduped)
		if n > 0 && deduped[n-1].StockIndex == row.StockIndex && deduped[n-1].Date.Equal(row.Date) {
			continue
		}
		deduped = append(deduped, row)
	}
	return deduped, nil
}

func mapHeader(header []string) (map[string]int, error) {
	colIdx := make(map[string]int)
	for j, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "index", "stock_index", "symbol":
			colIdx["stock_index"] = j
		case "date":
			colIdx["date"] = j
		case "open":
			colIdx[ColOpen] = j
		case "high":
			colIdx[ColHigh] = j
		case "low":
			colIdx[ColLow] = j
		case "close":
			colIdx[ColClose] = j
		case "volume":
			colIdx[ColVolume] = j
		}
	}
	for _, required := range append([]string{"stock_index", "date"}, CoreColumns...) {
		if _, ok := colIdx[required]; !ok {
			return nil, errors.NewParsingError(fmt.Sprintf("missing column %q in header", required), nil)
		}
	}
	return colIdx, nil
}

// parseRecord returns ok=false when any core field is missing or unparseable
// or volume is zero; such rows do not survive cleaning.
func parseRecord(record []string, colIdx map[string]int) (PriceRow, bool) {
	cell := func(key string) string {
		j := colIdx[key]
		if j >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[j])
	}

	code := cell("stock_index")
	if code == "" {
		return PriceRow{}, false
	}
	date, err := parseDate(cell("date"))
	if err != nil {
		return PriceRow{}, false
	}

	values := make(map[string]float64, len(CoreColumns))
	for _, name := range CoreColumns {
		raw := cell(name)
		if raw == "" || strings.EqualFold(raw, "null") || strings.EqualFold(raw, "nan") {
			return PriceRow{}, false
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return PriceRow{}, false
		}
		values[name] = v
	}
	if values[ColVolume] <= 0 {
		return PriceRow{}, false
	}

	return PriceRow{
		Date:       date,
		StockIndex: CanonicalIndexName(code),
		Open:       values[ColOpen],
		High:       values[ColHigh],
		Low:        values[ColLow],
		Close:      values[ColClose],
		Volume:     values[ColVolume],
	}, true
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	time.RFC3339,
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// FilterPattern keeps rows whose instrument name contains the pattern,
// case-insensitively.
func FilterPattern(rows []PriceRow, pattern string) []PriceRow {
	needle := strings.ToLower(pattern)
	var out []PriceRow
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.StockIndex), needle) {
			out = append(out, row)
		}
	}
	return out
}

// Instruments returns the distinct instrument names present, sorted.
func Instruments(rows []PriceRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		if !seen[row.StockIndex] {
			seen[row.StockIndex] = true
			names = append(names, row.StockIndex)
		}
	}
	sort.Strings(names)
	return names
}
