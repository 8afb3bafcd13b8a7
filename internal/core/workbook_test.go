package core

// workbook_test.go builds in-memory xlsx fixtures for the engine and
// inference tests.

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// formulaCell is a fixture cell holding a formula plus its cached value, the
// way a saved workbook stores calculated columns.
type formulaCell struct {
	expr   string
	cached any
}

// buildWorkbook writes headers into row 1 and one sheet row per data row.
// Date cells get the wire number format so values round-trip as dd/mm/yyyy.
func buildWorkbook(t *testing.T, headers []string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(DateStyle)})
	if err != nil {
		t.Fatalf("create date style: %v", err)
	}

	for j, h := range headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			t.Fatalf("header coordinate: %v", err)
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			t.Fatalf("set header %q: %v", h, err)
		}
	}

	for i, row := range rows {
		r := i + 2
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				t.Fatalf("cell coordinate: %v", err)
			}
			switch val := v.(type) {
			case nil:
			case string:
				err = f.SetCellStr(sheet, cell, val)
			case int:
				err = f.SetCellValue(sheet, cell, val)
			case float64:
				err = f.SetCellValue(sheet, cell, val)
			case time.Time:
				if err = f.SetCellValue(sheet, cell, val); err == nil {
					err = f.SetCellStyle(sheet, cell, cell, dateStyle)
				}
			case formulaCell:
				if val.cached != nil {
					if err = f.SetCellValue(sheet, cell, val.cached); err != nil {
						break
					}
				}
				err = f.SetCellFormula(sheet, cell, val.expr)
			default:
				t.Fatalf("unsupported fixture value %T", v)
			}
			if err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// openWorkbook parses an engine result for inspection.
func openWorkbook(t *testing.T, blob []byte) (*excelize.File, string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("open result workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	sheet, err := firstSheet(f)
	if err != nil {
		t.Fatalf("result sheet: %v", err)
	}
	return f, sheet
}

// cellValue reads one cell of an engine result.
func cellValue(t *testing.T, f *excelize.File, sheet string, col, row int) string {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatalf("coordinate: %v", err)
	}
	v, err := f.GetCellValue(sheet, cell)
	if err != nil {
		t.Fatalf("read cell %s: %v", cell, err)
	}
	return v
}
