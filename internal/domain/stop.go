package domain

// Stop is one aggregated delivery row: a single customer location with its
// summed tonnage/amount and concatenated invoice references.
// Rows without parseable coordinates never become Stops.
type Stop struct {
	CustomerID     string
	CustomerName   string
	Location       string
	RawCoordinates string
	Rep            string
	Tonnage        float64
	Amount         float64
	Invoices       string
	Coord          Coordinates
}

// WeightKg converts the stop's tonnage to whole kilograms.
func (s Stop) WeightKg() int {
	return int(s.Tonnage * 1000)
}
