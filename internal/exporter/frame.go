package exporter

import (
	"math"
	"strconv"

	"idxcast/internal/dataset"
	"idxcast/internal/errors"
)

// WriteFrame exports an engineered frame as CSV with a leading date column.
// When columns is empty all frame columns are written, in frame order.
// Undefined values are written as empty cells.
func (w *CSVWriter) WriteFrame(filePath string, frame *dataset.Frame, columns []string) error {
	if frame == nil {
		return errors.NewInvalidInput("frame is nil")
	}
	if len(columns) == 0 {
		columns = frame.Columns()
	}
	for _, name := range columns {
		if !frame.HasColumn(name) {
			return errors.NewInvalidInput("unknown column " + name)
		}
	}

	headers := append([]string{"date"}, columns...)
	records := make([][]string, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		record := make([]string, 0, len(headers))
		record = append(record, frame.Date(i).Format("2006-01-02"))
		for _, name := range columns {
			record = append(record, formatCell(frame.At(i, name)))
		}
		records[i] = record
	}

	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records})
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
