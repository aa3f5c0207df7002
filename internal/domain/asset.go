package domain

// VehicleAsset is the external platform's record for a truck: the numeric
// unit id the optimizer routes against and the display name shown to users.
type VehicleAsset struct {
	UnitID int64
	Name   string
}
