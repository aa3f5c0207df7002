package services

import (
	"fmt"
	"strconv"
	"strings"

	"fleet-dispatch-service/internal/domain"
)

// Asset files name their unit column inconsistently; candidates are tried in
// preference order.
var assetNameColumns = []string{"reportname", "name", "unit", "unitname"}

const assetIDColumn = "itemid"

// ResolveAsset looks the normalized vehicle identifier up in the asset table.
//
// The first row is the header. Asset names are normalized the same way as
// plates; an exact match is preferred, falling back to containment (the
// identifier appearing inside an asset name, which tolerates prefixes and
// suffixes like "KBX 123Z-TRUCK"). Returns ok=false when the identifier is
// empty or nothing matches.
func ResolveAsset(rows [][]string, vehicleID string) (domain.VehicleAsset, bool, error) {
	if len(rows) == 0 {
		return domain.VehicleAsset{}, false, fmt.Errorf("assets file is empty")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	nameIdx := -1
	for _, candidate := range assetNameColumns {
		if idx, ok := columns[candidate]; ok {
			nameIdx = idx
			break
		}
	}
	idIdx, hasID := columns[assetIDColumn]
	if nameIdx < 0 || !hasID {
		return domain.VehicleAsset{}, false, fmt.Errorf(
			"assets file must contain columns like 'ReportName' (or 'Name') and 'itemId'")
	}

	if vehicleID == "" {
		return domain.VehicleAsset{}, false, nil
	}

	type assetRow struct {
		normalized string
		name       string
		id         string
	}
	assets := make([]assetRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cellAt(row, nameIdx)
		assets = append(assets, assetRow{
			normalized: NormalizePlate(name),
			name:       name,
			id:         cellAt(row, idIdx),
		})
	}

	for _, a := range assets {
		if a.normalized == vehicleID {
			return toAsset(a.id, a.name)
		}
	}

	// Containment fallback: helps when asset names carry decorations around
	// the plate. Can mis-match when one plate is a substring of another.
	for _, a := range assets {
		if strings.Contains(a.normalized, vehicleID) {
			return toAsset(a.id, a.name)
		}
	}

	return domain.VehicleAsset{}, false, nil
}

func toAsset(id, name string) (domain.VehicleAsset, bool, error) {
	// Spreadsheet numerics may surface as "123" or "123.0".
	v, err := strconv.ParseFloat(strings.TrimSpace(id), 64)
	if err != nil {
		return domain.VehicleAsset{}, false, fmt.Errorf("asset %q has non-numeric %s %q", name, assetIDColumn, id)
	}
	return domain.VehicleAsset{UnitID: int64(v), Name: name}, true, nil
}
