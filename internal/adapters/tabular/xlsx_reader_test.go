package tabular

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadTable(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	cells := map[string]string{
		"A1": "Truck Number: KBX 123Z",
		"A2": "NO.", "B2": "CUSTOMER ID", "C2": "CUSTOMER NAME",
		"A3": "1", "B3": "C001", "C3": "Acme Stores",
	}
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			t.Fatalf("set cell %s: %v", ref, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := NewXLSXReader().ReadTable(buf)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Truck Number: KBX 123Z" {
		t.Fatalf("first cell = %q", rows[0][0])
	}
	if rows[1][1] != "CUSTOMER ID" {
		t.Fatalf("header cell = %q", rows[1][1])
	}
	if rows[2][2] != "Acme Stores" {
		t.Fatalf("data cell = %q", rows[2][2])
	}
}

func TestReadTableRejectsGarbage(t *testing.T) {
	_, err := NewXLSXReader().ReadTable(strings.NewReader("not a workbook"))
	if err == nil {
		t.Fatal("expected error for a non-xlsx stream")
	}
}
