package services

import (
	"reflect"
	"strings"
	"testing"
)

func orderHeader() []string {
	return []string{"NO.", "CUSTOMER ID", "CUSTOMER NAME", "LOCATION", "LOCATION COORDINATES", "TONNAGE", "AMOUNT", "INVOICE NO", "REP"}
}

func orderRows(detail ...[]string) [][]string {
	rows := [][]string{
		{"Dispatch plan"},
		{"Truck Number: KBX 123Z"},
		orderHeader(),
	}
	return append(rows, detail...)
}

func TestParseOrderFileAggregates(t *testing.T) {
	rows := orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "2.0", "1,500", "INV-1", "Jane"},
		[]string{"2", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "3.5", "2,500", "INV-2", "Jane"},
		[]string{"3", "C002", "Beta Traders", "Gilgil", "LAT:-0.50LONG:36.30", "1.0", "900", "INV-3", "Omar"},
	)

	file, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.VehicleID != "KBX123Z" {
		t.Fatalf("vehicle id = %q, want KBX123Z", file.VehicleID)
	}
	if len(file.Stops) != 2 {
		t.Fatalf("expected 2 aggregated stops, got %d", len(file.Stops))
	}

	acme := file.Stops[0]
	if acme.CustomerID != "C001" {
		t.Fatalf("first stop customer = %q, want C001", acme.CustomerID)
	}
	if acme.Tonnage != 5.5 {
		t.Fatalf("tonnage = %v, want 5.5", acme.Tonnage)
	}
	if acme.Amount != 4000 {
		t.Fatalf("amount = %v, want 4000", acme.Amount)
	}
	if acme.Invoices != "INV-1, INV-2" {
		t.Fatalf("invoices = %q, want %q", acme.Invoices, "INV-1, INV-2")
	}
	if acme.Coord.Lat != -0.30 || acme.Coord.Lon != 36.07 {
		t.Fatalf("coordinates = %+v, want (-0.30, 36.07)", acme.Coord)
	}
}

func TestParseOrderFileFiltersRows(t *testing.T) {
	rows := orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "2.0", "100", "", "Jane"},
		[]string{"2", "", "blank id", "Nakuru", "LAT: -0.30 LONG: 36.07", "9.0", "999", "", "Jane"},
		[]string{"3", "C099", "Grand Total", "Nakuru", "LAT: -0.30 LONG: 36.07", "9.0", "999", "", "Jane"},
		[]string{"4", "C098", "SUB-TOTAL", "Nakuru", "LAT: -0.30 LONG: 36.07", "9.0", "999", "", "Jane"},
		[]string{"5", "C002", "Beta Traders", "Gilgil", "no coordinates here", "1.0", "900", "", "Omar"},
	)

	file, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(file.Stops) != 1 {
		t.Fatalf("expected 1 stop after filtering, got %d", len(file.Stops))
	}
	if file.Stops[0].CustomerID != "C001" {
		t.Fatalf("surviving stop = %q, want C001", file.Stops[0].CustomerID)
	}
}

func TestParseOrderFileNumericCoercion(t *testing.T) {
	rows := orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "1,234.5", "n/a", "", "Jane"},
	)

	file, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.Stops[0].Tonnage != 1234.5 {
		t.Fatalf("tonnage = %v, want 1234.5", file.Stops[0].Tonnage)
	}
	if file.Stops[0].Amount != 0 {
		t.Fatalf("amount = %v, want 0 for unparseable value", file.Stops[0].Amount)
	}
}

func TestParseOrderFileMissingHeaderRow(t *testing.T) {
	_, err := ParseOrderFile([][]string{
		{"Truck Number: KBX 123Z"},
		{"CUSTOMER ID", "CUSTOMER NAME"},
	})
	if err == nil || !strings.Contains(err.Error(), "header row") {
		t.Fatalf("expected header-row error, got %v", err)
	}
}

func TestParseOrderFileMissingColumns(t *testing.T) {
	_, err := ParseOrderFile([][]string{
		{"NO.", "CUSTOMER ID", "CUSTOMER NAME"},
	})
	if err == nil {
		t.Fatal("expected missing-columns error")
	}
	for _, col := range []string{"LOCATION", "LOCATION COORDINATES"} {
		if !strings.Contains(err.Error(), col) {
			t.Fatalf("error %q does not name missing column %q", err, col)
		}
	}
	if strings.Contains(err.Error(), "CUSTOMER ID") {
		t.Fatalf("error %q names a column that is present", err)
	}
}

func TestParseOrderFileHeaderNormalization(t *testing.T) {
	// Marker matching is case-insensitive; header names survive messy
	// spacing and casing; blank and UNNAMED columns are dropped.
	rows := [][]string{
		{"no.", "customer  id", " Customer  Name ", "LOCATION", "location coordinates", "", "UNNAMED: 6"},
		{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "x", "y"},
	}

	file, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(file.Stops))
	}
	if file.Stops[0].CustomerName != "Acme Stores" {
		t.Fatalf("customer name = %q, want Acme Stores", file.Stops[0].CustomerName)
	}
}

func TestParseOrderFileIdempotent(t *testing.T) {
	rows := orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "2.0", "100", "INV-1", "Jane"},
		[]string{"2", "C002", "Beta Traders", "Gilgil", "LAT:-0.50LONG:36.30", "1.0", "900", "INV-2", "Omar"},
	)

	first, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ParseOrderFile(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParseCoordinates(t *testing.T) {
	cases := []struct {
		in  string
		lat float64
		lon float64
		ok  bool
	}{
		{"LAT: -0.30 LONG: 36.07", -0.30, 36.07, true},
		{"LAT:-0.30LONG:36.07", -0.30, 36.07, true},
		{"LAT: - 0.30 LONG: 36 .07", -0.30, 36.07, true},
		{"-0.30, 36.07", 0, 0, false},
		{"LAT: abc LONG: 36.07", 0, 0, false},
		{"LAT: -0.30", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tc := range cases {
		coord, ok := parseCoordinates(tc.in)
		if ok != tc.ok {
			t.Fatalf("parseCoordinates(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && (coord.Lat != tc.lat || coord.Lon != tc.lon) {
			t.Fatalf("parseCoordinates(%q) = %+v, want (%v, %v)", tc.in, coord, tc.lat, tc.lon)
		}
	}
}

func TestMergeOrderFilesDeduplicates(t *testing.T) {
	a, err := ParseOrderFile(orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "2.0", "100", "", "Jane"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ParseOrderFile(orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "9.0", "999", "", "Jane"},
		[]string{"2", "C002", "Beta Traders", "Gilgil", "LAT:-0.50LONG:36.30", "1.0", "900", "", "Omar"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stops, vehicleID, err := MergeOrderFiles([]OrderFile{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vehicleID != "KBX123Z" {
		t.Fatalf("vehicle id = %q, want KBX123Z", vehicleID)
	}
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops after dedupe, got %d", len(stops))
	}
	// First occurrence wins for duplicated (customer id, location).
	if stops[0].Tonnage != 2.0 {
		t.Fatalf("deduped stop tonnage = %v, want 2.0 (first occurrence)", stops[0].Tonnage)
	}
}

func TestMergeOrderFilesConflictingVehicles(t *testing.T) {
	a, err := ParseOrderFile(orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "LAT: -0.30 LONG: 36.07", "2.0", "100", "", "Jane"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := a
	b.VehicleID = "KAA999Y"

	_, _, err = MergeOrderFiles([]OrderFile{a, b})
	if err == nil {
		t.Fatal("expected conflicting-vehicle error")
	}
	if !strings.Contains(err.Error(), "KBX123Z") || !strings.Contains(err.Error(), "KAA999Y") {
		t.Fatalf("error %q does not name both identifiers", err)
	}
}

func TestMergeOrderFilesNoValidRows(t *testing.T) {
	file, err := ParseOrderFile(orderRows(
		[]string{"1", "C001", "Acme Stores", "Nakuru", "not parseable", "2.0", "100", "", "Jane"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = MergeOrderFiles([]OrderFile{file})
	if err == nil || !strings.Contains(err.Error(), "no delivery rows") {
		t.Fatalf("expected no-valid-rows error, got %v", err)
	}
}
