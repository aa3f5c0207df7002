package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// Dispatcher runs one submission end to end: parse and aggregate order files,
// resolve the truck against the asset file, and hand the stops to the
// external route planner.
type Dispatcher struct {
	Reader  ports.TableReader
	Planner ports.RoutePlanner
}

type DispatchRequest struct {
	Orders     []io.Reader
	Assets     io.Reader
	Token      string
	ResourceID int64
	Window     domain.TimeWindow
}

// Dispatch never returns an error: every fault, including panics from
// malformed remote data, is converted into a failure result so the
// presentation layer always has something to render.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (result domain.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("op=dispatch panic=%v", r)
			result = domain.Failure(fmt.Sprintf("an unexpected error occurred: %v", r))
		}
	}()

	stops, vehicleID, err := d.aggregate(req.Orders)
	if err != nil {
		return domain.Failure(err.Error())
	}

	unit, err := d.resolveUnit(req.Assets, vehicleID)
	if err != nil {
		return domain.Failure(err.Error())
	}

	planURL, err := d.Planner.CreateRoute(ctx, ports.RoutePlanRequest{
		Token:      req.Token,
		ResourceID: req.ResourceID,
		Unit:       unit,
		Stops:      stops,
		Window:     req.Window,
	})
	if err != nil {
		return domain.Failure(err.Error())
	}

	var tonnage, amount float64
	for _, s := range stops {
		tonnage += s.Tonnage
		amount += s.Amount
	}

	return domain.DispatchResult{
		OK:             true,
		Message:        "Route created successfully",
		PlanURL:        planURL,
		DeliveryPoints: len(stops),
		TotalTonnage:   tonnage,
		TotalAmount:    amount,
	}
}

func (d *Dispatcher) aggregate(orders []io.Reader) ([]domain.Stop, string, error) {
	if len(orders) == 0 {
		return nil, "", fmt.Errorf("at least one orders file is required")
	}

	files := make([]OrderFile, 0, len(orders))
	for i, r := range orders {
		rows, err := d.Reader.ReadTable(r)
		if err != nil {
			return nil, "", fmt.Errorf("read orders file %d: %w", i+1, err)
		}
		file, err := ParseOrderFile(rows)
		if err != nil {
			return nil, "", fmt.Errorf("orders file %d: %w", i+1, err)
		}
		files = append(files, file)
	}

	return MergeOrderFiles(files)
}

func (d *Dispatcher) resolveUnit(assets io.Reader, vehicleID string) (domain.VehicleAsset, error) {
	rows, err := d.Reader.ReadTable(assets)
	if err != nil {
		return domain.VehicleAsset{}, fmt.Errorf("read assets file: %w", err)
	}

	unit, ok, err := ResolveAsset(rows, vehicleID)
	if err != nil {
		return domain.VehicleAsset{}, err
	}
	if !ok {
		display := vehicleID
		if display == "" {
			display = "UNKNOWN"
		}
		return domain.VehicleAsset{}, fmt.Errorf(
			"could not find unit ID for truck (normalized): %s", display)
	}
	return unit, nil
}
