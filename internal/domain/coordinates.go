package domain

import "math"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

const earthRadiusKm = 6371

// DistanceKm returns the great-circle (haversine) distance to other in kilometers.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	lat1 := radians(c.Lat)
	lon1 := radians(c.Lon)
	lat2 := radians(other.Lat)
	lon2 := radians(other.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceMeters returns the haversine distance truncated to whole meters,
// the unit the external platform expects for leg mileage.
func (c Coordinates) DistanceMeters(other Coordinates) int {
	return int(c.DistanceKm(other) * 1000)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
