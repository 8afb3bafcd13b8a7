package core

import (
	"testing"
	"time"
)

func inventoryTypes() map[string]DataType {
	return map[string]DataType{
		"item":  TypeText,
		"qty":   TypeNumeric,
		"when":  TypeDate,
		"total": TypeFormula,
	}
}

func TestParseView(t *testing.T) {
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	blob := buildWorkbook(t,
		[]string{"item", "qty", "when", "total"},
		[][]any{
			{"apples", 3, d, formulaCell{"B2*2", 6.0}},
			{"pears", 4.5, nil, formulaCell{"B3*2", 9.0}},
		})

	view, err := ParseView(blob, inventoryTypes())
	if err != nil {
		t.Fatalf("ParseView() error = %v", err)
	}

	if len(view.Headers) != 4 || view.Headers[0] != "item" {
		t.Fatalf("Headers = %v", view.Headers)
	}
	if len(view.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(view.Rows))
	}

	row := view.Rows[0]
	if row[0].Kind != KindText || row[0].Text != "apples" {
		t.Errorf("row 1 item = %+v, want text apples", row[0])
	}
	if row[1].Kind != KindInteger || row[1].Int != 3 {
		t.Errorf("row 1 qty = %+v, want integer 3", row[1])
	}
	if row[2].Kind != KindDate || !row[2].Date.Equal(d) {
		t.Errorf("row 1 when = %+v, want date %v", row[2], d)
	}
	// Saved formula columns read back as their calculated values
	if row[3].Kind != KindInteger || row[3].Int != 6 {
		t.Errorf("row 1 total = %+v, want integer 6", row[3])
	}

	second := view.Rows[1]
	if second[1].Kind != KindFloat || second[1].Float != 4.5 {
		t.Errorf("row 2 qty = %+v, want float 4.5", second[1])
	}
	if second[2].Kind != KindEmpty {
		t.Errorf("row 2 when = %+v, want empty", second[2])
	}
}

func TestParseView_WireValues(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		cell CellValue
		want any
	}{
		{CellValue{Kind: KindInteger, Int: 7}, int64(7)},
		{CellValue{Kind: KindFloat, Float: 1.5}, 1.5},
		{CellValue{Kind: KindText, Text: "x"}, "x"},
		{CellValue{Kind: KindDate, Date: d}, "01/03/2026"},
		{CellValue{Kind: KindEmpty}, nil},
	}

	for _, tt := range tests {
		if got := tt.cell.Wire(); got != tt.want {
			t.Errorf("Wire(%+v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestParseView_ShortRows(t *testing.T) {
	blob := buildWorkbook(t,
		[]string{"a", "b", "c"},
		[][]any{
			{"only-first"},
		})

	view, err := ParseView(blob, map[string]DataType{"a": TypeText, "b": TypeText, "c": TypeText})
	if err != nil {
		t.Fatalf("ParseView() error = %v", err)
	}
	row := view.Rows[0]
	if len(row) != 3 {
		t.Fatalf("len(row) = %d, want 3 (padded to headers)", len(row))
	}
	if row[1].Kind != KindEmpty || row[2].Kind != KindEmpty {
		t.Error("missing trailing cells should parse as empty")
	}
}

func TestParseView_UnparseableDateFallsBackToText(t *testing.T) {
	blob := buildWorkbook(t,
		[]string{"when"},
		[][]any{
			{"sometime soon"},
		})

	view, err := ParseView(blob, map[string]DataType{"when": TypeDate})
	if err != nil {
		t.Fatalf("ParseView() error = %v", err)
	}
	cell := view.Rows[0][0]
	if cell.Kind != KindText || cell.Text != "sometime soon" {
		t.Errorf("cell = %+v, want text fallback", cell)
	}
}

func TestParseView_NoHeaderRow(t *testing.T) {
	blob := buildWorkbook(t, nil, nil)
	if _, err := ParseView(blob, nil); err == nil {
		t.Fatal("ParseView() expected error for empty workbook")
	}
}
