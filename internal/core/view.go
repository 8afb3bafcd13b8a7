package core

// view.go builds the read-only, cacheable representation of a document.

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// View is the parsed, read-only form of a document held by the ViewCache.
// Rows holds data rows only; row 1 of the sheet supplies Headers. Consumers
// must never mutate a View; mutation goes through the engine's own freshly
// loaded workbook.
type View struct {
	Headers []string
	Rows    [][]CellValue
}

// ParseView parses a document blob into a View, typing each cell by its
// column's inferred semantic type. Only the first worksheet is read.
func ParseView(blob []byte, dataTypes map[string]DataType) (*View, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := firstSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook has no header row")
	}

	headers := rows[0]
	view := &View{Headers: headers}
	for _, raw := range rows[1:] {
		cells := make([]CellValue, len(headers))
		for i, h := range headers {
			var s string
			if i < len(raw) {
				s = raw[i]
			}
			cells[i] = parseCell(s, dataTypes[h])
		}
		view.Rows = append(view.Rows, cells)
	}
	return view, nil
}

// parseCell types a raw cell string by the column's semantic type. Formula
// and error columns carry calculated values in a saved workbook, so they are
// parsed as numbers where possible, matching a values-only read.
func parseCell(s string, t DataType) CellValue {
	if s == "" {
		return CellValue{Kind: KindEmpty}
	}

	switch t {
	case TypeDate:
		if d, err := time.Parse(DateFormat, s); err == nil {
			return CellValue{Kind: KindDate, Date: d}
		}
		return CellValue{Kind: KindText, Text: s}
	case TypeText:
		return CellValue{Kind: KindText, Text: s}
	default:
		switch v := coerceNumeric(s).(type) {
		case int64:
			return CellValue{Kind: KindInteger, Int: v}
		case float64:
			return CellValue{Kind: KindFloat, Float: v}
		default:
			return CellValue{Kind: KindText, Text: s}
		}
	}
}

// firstSheet returns the name of the only worksheet this system operates on.
func firstSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	return sheets[0], nil
}
