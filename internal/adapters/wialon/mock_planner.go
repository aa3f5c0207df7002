package wialon

import (
	"context"

	"fleet-dispatch-service/internal/ports"
)

// MockPlanner records every request and returns canned results.
type MockPlanner struct {
	URL      string
	Err      error
	Panic    bool
	Requests []ports.RoutePlanRequest
}

func (m *MockPlanner) CreateRoute(ctx context.Context, req ports.RoutePlanRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Panic {
		panic("mock planner: forced panic")
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.URL, nil
}
