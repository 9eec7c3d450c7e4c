package helpers

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// CSV HELPER — Parses CSV Data into a Table
// ============================================================================
// The consumer reads the CSV from wherever it lives (file, S3, Sheets);
// this helper converts raw bytes into a table. Columns where every
// non-empty cell parses as a number become float64 columns; everything
// else stays string. Malformed rows are skipped.
// ============================================================================

// ParseCSV parses CSV bytes into a table. The first row is the header;
// header names are snake_cased. Rows are labelled 0..n-1.
func ParseCSV(data []byte) (*table.Table, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = toSnakeCase(strings.TrimSpace(h))
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	// Sniff column types: float64 if every non-empty cell parses.
	numeric := make([]bool, len(keys))
	for col := range keys {
		numeric[col] = true
		seen := false
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[col] = false
				break
			}
		}
		if !seen {
			numeric[col] = false
		}
	}

	t := table.New(table.NumberedLabels(len(rows))...)
	for col, key := range keys {
		values := make([]any, len(rows))
		for i, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			if numeric[col] {
				f, _ := strconv.ParseFloat(cell, 64)
				values[i] = f
			} else {
				values[i] = cell
			}
		}
		if err := t.SetColumn(key, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes a table as CSV: a "label" column followed by the table's
// columns, one row per table row.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	columns := t.Columns()
	header := append([]string{"label"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	labels := t.Labels()
	for row := 0; row < t.NumRows(); row++ {
		record := make([]string, 0, len(header))
		record = append(record, labels[row])
		for _, col := range columns {
			record = append(record, formatCell(t.Value(col, row)))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		// Whole numbers without decimals, fractional with full precision.
		if c == float64(int64(c)) {
			return strconv.FormatInt(int64(c), 10)
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return ""
	}
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
