package services

import (
	"regexp"
	"strings"
)

// Truck identifiers appear in free-form preamble cells with vendor-variable
// labeling ("Truck Number: KBX123Z", "Truck No. KBX 123Z", a bare plate).
// Matchers are tried in order; the first capture wins.
var plateMatchers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Truck\s*(?:Number|No\.?|#)?\s*[:\-]?\s*([A-Z0-9\- ]{4,})`),
	// Bare plates: 2-3 letters, 3-4 digits, trailing letter.
	regexp.MustCompile(`(?i)\b([A-Z]{2,3}\s*\d{3,4}\s*[A-Z])\b`),
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizePlate uppercases and strips everything except letters and digits,
// so "KBX-123 Z" and "kbx123z" compare equal.
func NormalizePlate(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}

// ExtractVehicleID pulls a normalized truck identifier out of free text.
// Returns "" when no matcher applies.
func ExtractVehicleID(text string) string {
	for _, m := range plateMatchers {
		if groups := m.FindStringSubmatch(text); groups != nil {
			return NormalizePlate(groups[1])
		}
	}
	return ""
}

// VehicleIDFromRows scans the first column of a raw (headerless) table and
// returns the first extractable identifier. An absent identifier is not an
// error here; it surfaces later if asset resolution fails.
func VehicleIDFromRows(rows [][]string) string {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if id := ExtractVehicleID(row[0]); id != "" {
			return id
		}
	}
	return ""
}
