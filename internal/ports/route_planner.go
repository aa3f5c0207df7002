package ports

import (
	"context"

	"fleet-dispatch-service/internal/domain"
)

// RoutePlanRequest carries everything the external logistics platform needs
// to optimize and persist one route for one vehicle.
type RoutePlanRequest struct {
	Token      string
	ResourceID int64
	Unit       domain.VehicleAsset
	Stops      []domain.Stop
	Window     domain.TimeWindow
}

// Contract for building a route on the external logistics platform.
type RoutePlanner interface {
	// CreateRoute optimizes the stops, persists the resulting route, and
	// returns a shareable plan URL.
	CreateRoute(ctx context.Context, req RoutePlanRequest) (string, error)
}
