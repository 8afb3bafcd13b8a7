package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, []byte, string) ([]byte, error) {
	return nil, &RenderError{Err: errors.New("converter exited 1")}
}

// inventoryDoc builds a three-row document: item (text), qty (numeric),
// when (date), total (formula, qty doubled).
func inventoryDoc(t *testing.T) *Document {
	t.Helper()
	blob := buildWorkbook(t,
		[]string{"item", "qty", "when", "total"},
		[][]any{
			{"apples", 3, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), formulaCell{"B2*2", 6}},
			{"pears", 5, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), formulaCell{"B3*2", 10}},
			{"plums", 7, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), formulaCell{"B4*2", 14}},
		})
	return &Document{
		ID:        "doc-1",
		Name:      "inventory.xlsx",
		Blob:      blob,
		DataTypes: inventoryTypes(),
	}
}

func beforeRow(item, qty, when, total string) map[string]string {
	return map[string]string{"item": item, "qty": qty, "when": when, "total": total}
}

func TestApply_CreateAppendsRow(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	blob, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeCreate,
		RowNumber: 4,
		After:     map[string]string{"item": "kiwi", "qty": "9", "when": "01/03/2026", "total": ""},
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("row count = %d, want 5", len(rows))
	}
	if got := cellValue(t, f, sheet, 1, 5); got != "kiwi" {
		t.Errorf("A5 = %q, want kiwi", got)
	}
	if got := cellValue(t, f, sheet, 2, 5); got != "9" {
		t.Errorf("B5 = %q, want 9", got)
	}
	if got := cellValue(t, f, sheet, 3, 5); got != "01/03/2026" {
		t.Errorf("C5 = %q, want 01/03/2026", got)
	}
	formula, err := f.GetCellFormula(sheet, "D5")
	if err != nil || formula != "B5*2" {
		t.Errorf("D5 formula = %q (err %v), want B5*2", formula, err)
	}
}

func TestApply_UpdateRow(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	blob, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeUpdate,
		RowNumber: 2,
		Before:    beforeRow("pears", "5", "06/01/2026", "10"),
		After:     map[string]string{"item": "pears", "qty": "8", "when": "06/01/2026", "total": ""},
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	if got := cellValue(t, f, sheet, 2, 3); got != "8" {
		t.Errorf("B3 = %q, want 8", got)
	}
	// Untouched rows stay put
	if got := cellValue(t, f, sheet, 1, 2); got != "apples" {
		t.Errorf("A2 = %q, want apples", got)
	}
}

func TestApply_DeletesInDescendingRowOrder(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	// Submitted ascending; the engine must process row 3 before row 1 so the
	// second delete's coordinates stay valid.
	blob, err := engine.Apply(context.Background(), doc, []Change{
		{
			ID:        "c1",
			Kind:      ChangeDelete,
			RowNumber: 1,
			Before:    beforeRow("apples", "3", "05/01/2026", "6"),
		},
		{
			ID:        "c2",
			Kind:      ChangeDelete,
			RowNumber: 3,
			Before:    beforeRow("plums", "7", "07/01/2026", "14"),
		},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(rows))
	}
	if got := cellValue(t, f, sheet, 1, 2); got != "pears" {
		t.Errorf("surviving row = %q, want pears", got)
	}
}

func TestApply_DeleteFallsBackToEarlierRow(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	// The change targets row 3 but its snapshot matches row 2: an earlier
	// deletion shifted the data up. The backward scan finds it.
	blob, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeDelete,
		RowNumber: 3,
		Before:    beforeRow("pears", "5", "06/01/2026", "10"),
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if got := cellValue(t, f, sheet, 1, 2); got != "apples" {
		t.Errorf("A2 = %q, want apples", got)
	}
	if got := cellValue(t, f, sheet, 1, 3); got != "plums" {
		t.Errorf("A3 = %q, want plums", got)
	}
}

func TestApply_DeleteNoMatchConflicts(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	_, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeDelete,
		RowNumber: 3,
		Before:    beforeRow("grapes", "99", "01/01/2026", "198"),
	}})

	var conflict *ChangeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Apply() error = %v, want ChangeConflictError", err)
	}
	if conflict.RowNumber != 3 {
		t.Errorf("conflict row = %d, want 3", conflict.RowNumber)
	}
}

func TestApply_UpdateOutOfRangeConflicts(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	_, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeUpdate,
		RowNumber: 9,
		Before:    beforeRow("apples", "3", "05/01/2026", "6"),
		After:     map[string]string{"item": "apples", "qty": "4", "when": "05/01/2026", "total": ""},
	}})

	var conflict *ChangeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Apply() error = %v, want ChangeConflictError", err)
	}
}

func TestApply_CreateMissingColumnMismatches(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	_, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeCreate,
		RowNumber: 4,
		After:     map[string]string{"item": "kiwi", "when": "01/03/2026", "total": ""},
	}})

	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Apply() error = %v, want SchemaMismatchError", err)
	}
	if mismatch.Header != "qty" {
		t.Errorf("mismatch header = %q, want qty", mismatch.Header)
	}
}

func TestApply_BadDateCoercion(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	_, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeUpdate,
		RowNumber: 1,
		Before:    beforeRow("apples", "3", "05/01/2026", "6"),
		After:     map[string]string{"item": "apples", "qty": "3", "when": "someday", "total": ""},
	}})

	var coercion *CoercionError
	if !errors.As(err, &coercion) {
		t.Fatalf("Apply() error = %v, want CoercionError", err)
	}
	if coercion.Value != "someday" || coercion.Type != TypeDate {
		t.Errorf("coercion = %+v", coercion)
	}
}

func TestApply_RegeneratesFormulasAfterDelete(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	blob, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeDelete,
		RowNumber: 1,
		Before:    beforeRow("apples", "3", "05/01/2026", "6"),
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	for _, tc := range []struct {
		cell string
		want string
	}{
		{"D2", "B2*2"},
		{"D3", "B3*2"},
	} {
		formula, err := f.GetCellFormula(sheet, tc.cell)
		if err != nil {
			t.Fatalf("GetCellFormula(%s) error = %v", tc.cell, err)
		}
		if formula != tc.want {
			t.Errorf("%s formula = %q, want %q", tc.cell, formula, tc.want)
		}
	}
}

func TestApply_RenderFailurePropagates(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(failingRenderer{})

	_, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeUpdate,
		RowNumber: 1,
		Before:    beforeRow("apples", "3", "05/01/2026", "6"),
		After:     map[string]string{"item": "apples", "qty": "4", "when": "05/01/2026", "total": ""},
	}})

	var render *RenderError
	if !errors.As(err, &render) {
		t.Fatalf("Apply() error = %v, want RenderError", err)
	}
}

func TestApply_EmptyDateClearsCell(t *testing.T) {
	doc := inventoryDoc(t)
	engine := NewEngine(PassthroughRenderer{})

	blob, err := engine.Apply(context.Background(), doc, []Change{{
		ID:        "c1",
		Kind:      ChangeUpdate,
		RowNumber: 1,
		Before:    beforeRow("apples", "3", "05/01/2026", "6"),
		After:     map[string]string{"item": "apples", "qty": "3", "when": "", "total": ""},
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	f, sheet := openWorkbook(t, blob)
	if got := cellValue(t, f, sheet, 3, 2); got != "" {
		t.Errorf("C2 = %q, want empty", got)
	}
}
