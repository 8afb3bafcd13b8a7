package core

import (
	"testing"
	"time"
)

func TestInferDataTypes(t *testing.T) {
	blob := buildWorkbook(t,
		[]string{"name", "qty", "price", "when", "total"},
		[][]any{
			{"widget", 3, 4.5, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), formulaCell{"B2*C2", 13.5}},
		})

	types, err := InferDataTypes(blob)
	if err != nil {
		t.Fatalf("InferDataTypes() error = %v", err)
	}

	want := map[string]DataType{
		"name":  TypeText,
		"qty":   TypeNumeric,
		"price": TypeNumeric,
		"when":  TypeDate,
		"total": TypeFormula,
	}
	for h, wt := range want {
		if types[h] != wt {
			t.Errorf("types[%q] = %q, want %q", h, types[h], wt)
		}
	}
	if len(types) != len(want) {
		t.Errorf("len(types) = %d, want %d", len(types), len(want))
	}
}

func TestInferDataTypes_FallsThroughEmptyCells(t *testing.T) {
	// Row 2 is blank for both columns; the first populated row decides.
	blob := buildWorkbook(t,
		[]string{"sparse", "never"},
		[][]any{
			{nil, nil},
			{"late text", nil},
		})

	types, err := InferDataTypes(blob)
	if err != nil {
		t.Fatalf("InferDataTypes() error = %v", err)
	}

	if types["sparse"] != TypeText {
		t.Errorf("types[sparse] = %q, want %q", types["sparse"], TypeText)
	}
	// A column with no value anywhere defaults to numeric
	if types["never"] != TypeNumeric {
		t.Errorf("types[never] = %q, want %q", types["never"], TypeNumeric)
	}
}

func TestInferDataTypes_DuplicateHeaderLastWins(t *testing.T) {
	blob := buildWorkbook(t,
		[]string{"id", "id"},
		[][]any{
			{"abc", 7},
		})

	types, err := InferDataTypes(blob)
	if err != nil {
		t.Fatalf("InferDataTypes() error = %v", err)
	}

	if len(types) != 1 {
		t.Fatalf("len(types) = %d, want 1", len(types))
	}
	if types["id"] != TypeNumeric {
		t.Errorf("types[id] = %q, want %q (rightmost column wins)", types["id"], TypeNumeric)
	}
}

func TestInferDataTypes_UnreadableBlob(t *testing.T) {
	if _, err := InferDataTypes([]byte("not a workbook")); err == nil {
		t.Fatal("InferDataTypes() expected error for garbage input")
	}
}

func TestContainsDateTokens(t *testing.T) {
	tests := []struct {
		numFmt string
		want   bool
	}{
		{"dd/mm/yyyy", true},
		{"yyyy-mm-dd", true},
		{"0.00", false},
		{"#,##0", false},
		{`0.00" m"`, false}, // quoted literal is not a date token
		{`"day: "dd`, true},
	}

	for _, tt := range tests {
		if got := containsDateTokens(tt.numFmt); got != tt.want {
			t.Errorf("containsDateTokens(%q) = %v, want %v", tt.numFmt, got, tt.want)
		}
	}
}

func TestIsBuiltInDateFmt(t *testing.T) {
	for _, id := range []int{14, 22, 27, 36, 45, 47, 50, 58} {
		if !isBuiltInDateFmt(id) {
			t.Errorf("isBuiltInDateFmt(%d) = false, want true", id)
		}
	}
	for _, id := range []int{0, 1, 13, 23, 26, 37, 44, 48, 49, 59} {
		if isBuiltInDateFmt(id) {
			t.Errorf("isBuiltInDateFmt(%d) = true, want false", id)
		}
	}
}
