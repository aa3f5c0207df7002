package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fleet-dispatch-service/internal/domain"
)

// Column names required in every order file after header normalization.
var requiredColumns = []string{"CUSTOMER ID", "CUSTOMER NAME", "LOCATION", "LOCATION COORDINATES"}

const headerMarker = "NO."

// OrderFile is one parsed order spreadsheet: its aggregated stops and the
// normalized vehicle identifier found in its preamble ("" when absent).
type OrderFile struct {
	Stops     []domain.Stop
	VehicleID string
}

// ParseOrderFile turns one raw order table into aggregated delivery stops.
//
// The table has an unstructured preamble (where the truck identifier lives)
// followed by a detail table whose header row contains the literal "NO.".
// Rows are grouped per customer/location, tonnage and amount summed, invoice
// references joined, and rows without parseable coordinates dropped.
func ParseOrderFile(rows [][]string) (OrderFile, error) {
	vehicleID := VehicleIDFromRows(rows)

	headerIdx, err := findHeaderRow(rows)
	if err != nil {
		return OrderFile{}, err
	}

	columns := normalizeHeader(rows[headerIdx])
	if missing := missingColumns(columns); len(missing) > 0 {
		return OrderFile{}, fmt.Errorf("missing required columns in orders file: %s", strings.Join(missing, ", "))
	}

	stops := aggregateRows(rows[headerIdx+1:], columns)
	return OrderFile{Stops: stops, VehicleID: vehicleID}, nil
}

// MergeOrderFiles concatenates stops from every file, de-duplicates by
// (customer id, location) keeping the first occurrence, and enforces that at
// most one distinct vehicle identifier was seen across files.
func MergeOrderFiles(files []OrderFile) ([]domain.Stop, string, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, 1)

	merged := make([]domain.Stop, 0)
	dedup := make(map[string]struct{})

	for _, f := range files {
		if f.VehicleID != "" {
			if _, ok := seen[f.VehicleID]; !ok {
				seen[f.VehicleID] = struct{}{}
				ids = append(ids, f.VehicleID)
			}
		}
		for _, s := range f.Stops {
			key := s.CustomerID + "\x00" + s.Location
			if _, ok := dedup[key]; ok {
				continue
			}
			dedup[key] = struct{}{}
			merged = append(merged, s)
		}
	}

	if len(ids) > 1 {
		sort.Strings(ids)
		return nil, "", fmt.Errorf("multiple truck numbers found (after normalization): %s", strings.Join(ids, ", "))
	}

	if len(merged) == 0 {
		return nil, "", fmt.Errorf("no delivery rows with valid coordinates were found")
	}

	vehicleID := ""
	if len(ids) == 1 {
		vehicleID = ids[0]
	}
	return merged, vehicleID, nil
}

func findHeaderRow(rows [][]string) (int, error) {
	for i, row := range rows {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), headerMarker) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("could not locate header row (cell %q not found)", headerMarker)
}

// normalizeHeader maps a normalized column name to its cell index.
// Blank and "UNNAMED"-prefixed columns (artifacts of empty header cells) are
// dropped; the first occurrence of a duplicated name wins.
func normalizeHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		name := normalizeColumnName(cell)
		if name == "" || strings.HasPrefix(name, "UNNAMED") {
			continue
		}
		if _, ok := columns[name]; ok {
			continue
		}
		columns[name] = i
	}
	return columns
}

// Collapse internal whitespace (including non-breaking spaces), trim, uppercase.
func normalizeColumnName(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func missingColumns(columns map[string]int) []string {
	missing := make([]string, 0)
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func optionalCell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok {
		return ""
	}
	return cellAt(row, idx)
}

// coerceNumeric parses a numeric cell, tolerating thousands separators.
// Unparseable values become zero; bad numeric data never fails a submission.
func coerceNumeric(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCoordinates parses the exact "LAT:<num>LONG:<num>" form, tolerating
// internal whitespace. Any other shape yields ok=false.
func parseCoordinates(s string) (domain.Coordinates, bool) {
	if !strings.Contains(s, "LAT:") || !strings.Contains(s, "LONG:") {
		return domain.Coordinates{}, false
	}

	parts := strings.SplitN(s, "LONG:", 2)
	latText := strings.ReplaceAll(strings.TrimSpace(strings.ReplaceAll(parts[0], "LAT:", "")), " ", "")
	lonText := strings.ReplaceAll(strings.TrimSpace(parts[1]), " ", "")

	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return domain.Coordinates{}, false
	}

	return domain.Coordinates{Lat: lat, Lon: lon}, true
}

type groupKey struct {
	customerID   string
	customerName string
	location     string
	coordinates  string
	rep          string
}

// aggregateRows filters detail rows and groups them per customer location.
//
// Dropped rows: empty customer id (blank/footer lines) and customer names
// containing "TOTAL" (summary artifacts). Tonnage and amount are summed per
// group; invoice references are comma-joined, skipping empties. Group order
// follows first appearance, so identical input yields identical output.
func aggregateRows(rows [][]string, columns map[string]int) []domain.Stop {
	type group struct {
		stop     domain.Stop
		invoices []string
	}

	groups := make(map[groupKey]*group)
	order := make([]groupKey, 0, len(rows))

	_, hasInvoices := columns["INVOICE NO"]

	for _, row := range rows {
		customerID := optionalCell(row, columns, "CUSTOMER ID")
		if customerID == "" {
			continue
		}
		customerName := optionalCell(row, columns, "CUSTOMER NAME")
		if strings.Contains(strings.ToUpper(customerName), "TOTAL") {
			continue
		}

		key := groupKey{
			customerID:   customerID,
			customerName: customerName,
			location:     optionalCell(row, columns, "LOCATION"),
			coordinates:  optionalCell(row, columns, "LOCATION COORDINATES"),
			rep:          optionalCell(row, columns, "REP"),
		}

		g, ok := groups[key]
		if !ok {
			g = &group{stop: domain.Stop{
				CustomerID:     key.customerID,
				CustomerName:   key.customerName,
				Location:       key.location,
				RawCoordinates: key.coordinates,
				Rep:            key.rep,
			}}
			groups[key] = g
			order = append(order, key)
		}

		g.stop.Tonnage += coerceNumeric(optionalCell(row, columns, "TONNAGE"))
		g.stop.Amount += coerceNumeric(optionalCell(row, columns, "AMOUNT"))

		if hasInvoices {
			if inv := optionalCell(row, columns, "INVOICE NO"); inv != "" {
				g.invoices = append(g.invoices, inv)
			}
		}
	}

	stops := make([]domain.Stop, 0, len(order))
	for _, key := range order {
		g := groups[key]

		coord, ok := parseCoordinates(g.stop.RawCoordinates)
		if !ok {
			continue
		}
		g.stop.Coord = coord
		g.stop.Invoices = strings.Join(g.invoices, ", ")
		stops = append(stops, g.stop)
	}

	return stops
}
