package core

// infer.go derives the per-column semantic type mapping stored on a document.
//
// The mapping is assigned once per document version: row 1 supplies the
// headers, row 2 the primary type sample, and columns whose row-2 cell is
// empty fall through to the first populated row below. A column with no
// value anywhere defaults to numeric.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// InferDataTypes scans a document blob and returns the header -> semantic
// type mapping for its first worksheet.
//
// A header that appears twice is last-write-wins: the rightmost column's
// type survives. Inherited behavior, kept because rejecting duplicate
// headers would refuse documents the system previously accepted.
func InferDataTypes(blob []byte) (map[string]DataType, error) {
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
	types := make(map[string]DataType, len(headers))
	for j, h := range headers {
		t := TypeNumeric
		for r := 2; r <= len(rows); r++ {
			raw := rows[r-1]
			if j >= len(raw) || raw[j] == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				return nil, err
			}
			t = cellDataType(f, sheet, cell)
			break
		}
		types[h] = t
	}
	return types, nil
}

// cellDataType classifies a single populated cell.
func cellDataType(f *excelize.File, sheet, cell string) DataType {
	if formula, err := f.GetCellFormula(sheet, cell); err == nil && formula != "" {
		if ct, err := f.GetCellType(sheet, cell); err == nil && ct == excelize.CellTypeError {
			return TypeError
		}
		return TypeFormula
	}

	ct, err := f.GetCellType(sheet, cell)
	if err != nil {
		return TypeText
	}

	switch ct {
	case excelize.CellTypeError:
		return TypeError
	case excelize.CellTypeDate:
		return TypeDate
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return TypeText
	case excelize.CellTypeNumber:
		if isDateStyled(f, sheet, cell) {
			return TypeDate
		}
		return TypeNumeric
	default:
		// Unset or bool storage type: fall back on the style and value.
		if isDateStyled(f, sheet, cell) {
			return TypeDate
		}
		v, _ := f.GetCellValue(sheet, cell)
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return TypeNumeric
		}
		return TypeText
	}
}

// isDateStyled reports whether the cell's number format renders it as a
// date. Serial-number dates are CellTypeNumber in storage; the style is the
// only reliable signal.
func isDateStyled(f *excelize.File, sheet, cell string) bool {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if isBuiltInDateFmt(style.NumFmt) {
		return true
	}
	if style.CustomNumFmt != nil {
		return containsDateTokens(*style.CustomNumFmt)
	}
	return false
}

// isBuiltInDateFmt covers the built-in date and date-time number formats.
func isBuiltInDateFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// containsDateTokens detects day/month/year tokens in a custom number
// format, ignoring quoted literals.
func containsDateTokens(numFmt string) bool {
	inLiteral := false
	for _, r := range strings.ToLower(numFmt) {
		switch {
		case r == '"':
			inLiteral = !inLiteral
		case inLiteral:
		case r == 'y' || r == 'd' || r == 'm':
			return true
		}
	}
	return false
}
