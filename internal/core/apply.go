package core

// apply.go is the change application engine: it loads a document's blob
// into a writable workbook, applies a transaction's row changes, regenerates
// every derived column from its row-2 template, and serializes the result
// through the rendering port.
//
// Changes are applied in descending row-number order so creates and deletes
// at lower rows never shift the rows referenced by not-yet-processed
// changes. Other pending transactions against the same document can still
// be invalidated by an approval; their deletes recover via the backward
// scan, their updates surface as conflicts.

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Engine applies approved change-sets to document blobs.
type Engine struct {
	renderer Renderer
}

// NewEngine creates an Engine that serializes through renderer.
func NewEngine(renderer Renderer) *Engine {
	return &Engine{renderer: renderer}
}

// Apply mutates a writable copy of doc's blob with changes and returns the
// rendered replacement bytes. The document itself is not modified and
// nothing is persisted here; on any error the caller must keep the prior
// blob.
func (e *Engine) Apply(ctx context.Context, doc *Document, changes []Change) ([]byte, error) {
	logger := slog.With("document", doc.ID, "changes", len(changes))
	logger.Info("apply changes to workbook - begin")

	f, err := excelize.OpenReader(bytes.NewReader(doc.Blob))
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
	rowCount := len(rows)

	// Row 2 is the canonical template for every derived column. Snapshot it
	// before any mutation can move or delete it.
	templates, err := snapshotTemplates(f, sheet, headers, doc.DataTypes)
	if err != nil {
		return nil, err
	}

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(DateStyle)})
	if err != nil {
		return nil, fmt.Errorf("create date style: %w", err)
	}

	ordered := make([]Change, len(changes))
	copy(ordered, changes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].RowNumber > ordered[j].RowNumber })

	for _, ch := range ordered {
		switch ch.Kind {
		case ChangeCreate:
			if err := e.applyCreate(f, sheet, headers, doc.DataTypes, ch, rowCount+1, dateStyle); err != nil {
				return nil, err
			}
			rowCount++
		case ChangeUpdate:
			if err := e.applyUpdate(f, sheet, headers, doc.DataTypes, ch, rowCount, dateStyle); err != nil {
				return nil, err
			}
		case ChangeDelete:
			if err := e.applyDelete(f, sheet, headers, doc.DataTypes, ch); err != nil {
				return nil, err
			}
			rowCount--
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("unknown change type %q", ch.Kind)}
		}
	}

	if err := regenerateFormulas(f, sheet, headers, doc.DataTypes, templates, rowCount); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	logger.Info("converted workbook to bytes")

	rendered, err := e.renderer.Render(ctx, buf.Bytes(), doc.Name)
	if err != nil {
		return nil, err
	}

	logger.Info("apply changes to workbook - complete")
	return rendered, nil
}

// applyCreate appends a new row at the end of the sheet. Every document
// header must be present in the change's after snapshot; derived cells are
// left for regeneration.
func (e *Engine) applyCreate(f *excelize.File, sheet string, headers []string, types map[string]DataType, ch Change, newRow int, dateStyle int) error {
	slog.Info("create row - begin", "change", ch.ID, "row", newRow-1)
	for j, h := range headers {
		value, ok := ch.After[h]
		if !ok {
			return &SchemaMismatchError{Header: h, ChangeID: ch.ID, RowNumber: ch.RowNumber}
		}
		if types[h].Derived() {
			continue
		}
		if err := setCell(f, sheet, j, newRow, types[h], value, dateStyle, ch); err != nil {
			return err
		}
	}
	slog.Info("create row - complete", "change", ch.ID)
	return nil
}

// applyUpdate writes the after values into an existing row, skipping
// derived cells.
func (e *Engine) applyUpdate(f *excelize.File, sheet string, headers []string, types map[string]DataType, ch Change, rowCount int, dateStyle int) error {
	row := ch.RowNumber + 1
	slog.Info("update row - begin", "change", ch.ID, "row", ch.RowNumber)
	if ch.RowNumber < 1 || row > rowCount {
		return &ChangeConflictError{ChangeID: ch.ID, RowNumber: ch.RowNumber}
	}
	for j, h := range headers {
		if _, ok := ch.Before[h]; !ok {
			return &SchemaMismatchError{Header: h, ChangeID: ch.ID, RowNumber: ch.RowNumber}
		}
		if types[h].Derived() {
			continue
		}
		value, ok := ch.After[h]
		if !ok {
			return &SchemaMismatchError{Header: h, ChangeID: ch.ID, RowNumber: ch.RowNumber}
		}
		if err := setCell(f, sheet, j, row, types[h], value, dateStyle, ch); err != nil {
			return err
		}
	}
	slog.Info("update row - complete", "change", ch.ID)
	return nil
}

// applyDelete removes the row matching the change's before snapshot. When
// the direct row no longer matches (earlier deletions shifted the data), it
// scans backward toward the top of the table and deletes the first matching
// row instead. Row 2 is never a fallback candidate: it is the formula
// template baseline.
func (e *Engine) applyDelete(f *excelize.File, sheet string, headers []string, types map[string]DataType, ch Change) error {
	row := ch.RowNumber + 1
	slog.Info("delete row - begin", "change", ch.ID, "row", ch.RowNumber)

	if ch.RowNumber >= 1 && rowMatches(f, sheet, headers, types, row, ch.Before) {
		if err := f.RemoveRow(sheet, row); err != nil {
			return fmt.Errorf("remove row %d: %w", row, err)
		}
		slog.Info("delete row - complete", "change", ch.ID)
		return nil
	}

	for alt := row - 1; alt >= 3; alt-- {
		if rowMatches(f, sheet, headers, types, alt, ch.Before) {
			if err := f.RemoveRow(sheet, alt); err != nil {
				return fmt.Errorf("remove row %d: %w", alt, err)
			}
			slog.Info("delete row - matched earlier row", "change", ch.ID, "row", alt-1, "requested", ch.RowNumber)
			return nil
		}
	}

	return &ChangeConflictError{ChangeID: ch.ID, RowNumber: ch.RowNumber}
}

// rowMatches compares a sheet row against a before snapshot cell by cell.
// Derived cells are excluded; dates compare via their formatted string,
// which equals the wire format; an empty cell matches an empty or absent
// before value.
func rowMatches(f *excelize.File, sheet string, headers []string, types map[string]DataType, row int, before map[string]string) bool {
	for j, h := range headers {
		if types[h].Derived() {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(j+1, row)
		if err != nil {
			return false
		}
		value, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return false
		}
		if value != before[h] {
			return false
		}
	}
	return true
}

// setCell coerces a wire value per the column's semantic type and writes it.
func setCell(f *excelize.File, sheet string, col, row int, t DataType, value string, dateStyle int, ch Change) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}

	switch t {
	case TypeDate:
		if value == "" {
			return f.SetCellValue(sheet, cell, nil)
		}
		d, err := parseWireDate(value)
		if err != nil {
			return &CoercionError{Header: headerAt(f, sheet, col), RowNumber: ch.RowNumber, Value: value, Type: TypeDate, Err: err}
		}
		if err := f.SetCellValue(sheet, cell, d); err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, dateStyle)
	case TypeNumeric:
		return f.SetCellValue(sheet, cell, coerceNumeric(value))
	default:
		return f.SetCellStr(sheet, cell, value)
	}
}

// snapshotTemplates records each derived column's row-2 formula text.
func snapshotTemplates(f *excelize.File, sheet string, headers []string, types map[string]DataType) (map[int]string, error) {
	templates := make(map[int]string)
	for j, h := range headers {
		if !types[h].Derived() {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return nil, err
		}
		formula, err := f.GetCellFormula(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("read formula template %s: %w", cell, err)
		}
		templates[j] = formula
	}
	return templates, nil
}

// regenerateFormulas rewrites every data row of every derived column from
// its row-2 template, translated to each row's coordinate. Keeps formula
// columns consistent after the row count changes.
func regenerateFormulas(f *excelize.File, sheet string, headers []string, types map[string]DataType, templates map[int]string, rowCount int) error {
	slog.Info("regenerate cell formulas - begin")
	for j, h := range headers {
		if !types[h].Derived() {
			continue
		}
		template := templates[j]
		for r := 2; r <= rowCount; r++ {
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				return err
			}
			if err := f.SetCellFormula(sheet, cell, TranslateFormula(template, r-2)); err != nil {
				return fmt.Errorf("set formula %s: %w", cell, err)
			}
		}
	}
	slog.Info("regenerate cell formulas - complete")
	return nil
}

func headerAt(f *excelize.File, sheet string, col int) string {
	cell, err := excelize.CoordinatesToCellName(col+1, 1)
	if err != nil {
		return ""
	}
	h, _ := f.GetCellValue(sheet, cell)
	return h
}

func strPtr(s string) *string { return &s }
