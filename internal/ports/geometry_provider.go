package ports

import (
	"context"

	"fleet-dispatch-service/internal/domain"
)

// Contract for resolving road geometry between two points.
// Used only to enrich route legs the optimizer returned without a polyline;
// callers must tolerate failure.
type GeometryProvider interface {
	// RoutePolyline returns an encoded polyline for the driving route
	// from origin to destination.
	RoutePolyline(ctx context.Context, origin, destination domain.Coordinates) (string, error)
}
