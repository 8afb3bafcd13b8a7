package core_test

// service_test.go holds the shared fixtures for the service-level tests:
// an in-memory store, a passthrough renderer and a small workbook with a
// text, a numeric and a formula column.

import (
	"context"
	"fmt"
	"testing"

	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/store"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newService(t *testing.T, cacheSize int) *core.Service {
	t.Helper()
	return core.NewService(store.NewMemory(), core.PassthroughRenderer{}, cacheSize)
}

func mustSignup(t *testing.T, svc *core.Service, email string) *core.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), email, "Str0ng@Pass", "Test", "User")
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", email, err)
	}
	return u
}

// inventoryBlob builds a workbook with headers item, qty, total where total
// doubles qty via a formula.
func inventoryBlob(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for j, h := range []string{"item", "qty", "total"} {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			t.Fatalf("coordinate: %v", err)
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}

	for i, row := range rows {
		r := i + 2
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				t.Fatalf("coordinate: %v", err)
			}
			switch val := v.(type) {
			case string:
				err = f.SetCellStr(sheet, cell, val)
			case int:
				err = f.SetCellValue(sheet, cell, val)
			default:
				t.Fatalf("unsupported fixture value %T", v)
			}
			if err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
		// Formula column with its cached result
		cell, err := excelize.CoordinatesToCellName(3, r)
		if err != nil {
			t.Fatalf("coordinate: %v", err)
		}
		qty := row[1].(int)
		if err := f.SetCellValue(sheet, cell, qty*2); err != nil {
			t.Fatalf("set cached value: %v", err)
		}
		if err := f.SetCellFormula(sheet, cell, fmt.Sprintf("B%d*2", r)); err != nil {
			t.Fatalf("set formula: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// createInventory uploads the standard two-row document as owner.
func createInventory(t *testing.T, svc *core.Service, owner *core.User) *core.Document {
	t.Helper()
	blob := inventoryBlob(t, [][]any{
		{"apples", 3},
		{"pears", 5},
	})
	doc, err := svc.CreateDocument(context.Background(), owner.ID, "inventory.xlsx", xlsxContentType, blob)
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	return doc
}
