package wialon

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
)

// CreateRoute runs the full sequence: login, optimize, assemble the ordered
// stop list with per-leg annotations, persist it, and return the plan URL.
func (c *Client) CreateRoute(ctx context.Context, req ports.RoutePlanRequest) (_ string, err error) {
	defer obs.Time(ctx, "wialon.CreateRoute")(&err)

	sid, err := c.login(ctx, req.Token)
	if err != nil {
		return "", err
	}

	// Construction order only; the optimizer decides the final stop order.
	stops := sortByDepotDistance(req.Stops, c.depot.Coord)

	unit, err := c.optimize(ctx, sid, req.Unit.UnitID, c.buildOptimizeParams(req, stops))
	if err != nil {
		return "", err
	}

	orders, summary := c.assembleRoute(ctx, req, stops, unit)

	update := routeUpdateParams{
		ItemID:   req.ResourceID,
		Orders:   orders,
		UID:      orders[0].Params.Schedule.RouteID,
		CallMode: "create",
		Exp:      routeExpirySeconds,
		Flags:    0,
		Name:     fmt.Sprintf("%s - %s", req.Unit.Name, c.now().In(c.loc).Format("2006-01-02 15:04")),
		Summary:  summary,
	}

	if err := c.createRouteBatch(ctx, sid, update); err != nil {
		return "", err
	}

	return c.planURL(sid), nil
}

// sortByDepotDistance orders stops by ascending great-circle distance from
// the depot. Stable so equidistant stops keep their aggregated order.
func sortByDepotDistance(stops []domain.Stop, depot domain.Coordinates) []domain.Stop {
	sorted := make([]domain.Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return depot.DistanceKm(sorted[i].Coord) < depot.DistanceKm(sorted[j].Coord)
	})
	return sorted
}

// buildOptimizeParams constructs one optimization order per stop, bracketed
// by the two synthetic depot markers, plus fleet-level routing parameters.
func (c *Client) buildOptimizeParams(req ports.RoutePlanRequest, stops []domain.Stop) optimizeParams {
	depotAddr := c.depotAddress()

	orders := make([]optimizeOrder, 0, len(stops))
	for i, s := range stops {
		orders = append(orders, optimizeOrder{
			Lat:    s.Coord.Lat,
			Lon:    s.Coord.Lon,
			From:   req.Window.From,
			To:     req.Window.To,
			Name:   s.CustomerName,
			Flags:  CustomerOrderFlag,
			Radius: customerRadiusMeters,
			ID:     i + 1,
			Params: optimizeOrderParams{
				Unloading:  unloadingSeconds,
				Repeating:  true,
				WeightKg:   s.WeightKg(),
				Volume:     0,
				Priority:   i + 1,
				Criterions: orderCriterions{},
				Address:    stopAddress(s),
			},
			Compat: emptyCompat(),
		})
	}

	depot := depotPoint{
		Name:    c.depot.Name,
		Lat:     c.depot.Coord.Lat,
		Lon:     c.depot.Coord.Lon,
		Address: depotAddr,
	}

	return optimizeParams{
		ItemID: req.ResourceID,
		Orders: orders,
		Warehouses: []warehouse{
			{ID: startDepotOrderID, Lat: depot.Lat, Lon: depot.Lon, Name: c.depot.Name, Flags: DepotStartFlag, Address: depotAddr},
			{ID: endDepotOrderID, Lat: depot.Lat, Lon: depot.Lon, Name: c.depot.Name, Flags: DepotEndFlag, Address: depotAddr},
		},
		Flags: optimizeFlags,
		Units: []int64{req.Unit.UnitID},
		GIS: gisParams{
			AddPoints:     1,
			Provider:      2,
			Speed:         0,
			CityJams:      1,
			CountryJams:   1,
			Mode:          routingProfile,
			DepartureTime: 1,
			Avoid:         []string{},
			TrafficModel:  trafficModel,
		},
		Priority:   map[string]any{},
		Criterions: optimizeCriterions{PenaltiesProfile: "balanced"},
		PointFrom:  depot,
		PointTo:    depot,
		From:       req.Window.From,
		To:         req.Window.To,
	}
}

// assembleRoute converts the optimizer's stop ordering into the persisted
// route: a start depot marker, the customer stops with normalized visit
// times, leg mileage and geometry, and a closing depot marker.
func (c *Client) assembleRoute(ctx context.Context, req ports.RoutePlanRequest, stops []domain.Stop, unit optimizedUnit) ([]routeOrder, routeSummaryTotals) {
	// Optimize order ids were assigned 1..n over the sorted stops. Weight,
	// cost and coordinates are looked up by customer name, first aggregated
	// occurrence winning.
	idToName := make(map[int]string, len(stops))
	nameToStop := make(map[string]domain.Stop, len(stops))
	for i, s := range stops {
		idToName[i+1] = s.CustomerName
		if _, ok := nameToStop[s.CustomerName]; !ok {
			nameToStop[s.CustomerName] = s
		}
	}

	// The optimizer may return the final leg's geometry on the end-depot
	// marker; recover it from the last such entry.
	endDepotPolyline := ""
	for i := len(unit.Orders) - 1; i >= 0; i-- {
		if unit.Orders[i].Flags == DepotEndFlag {
			endDepotPolyline = unit.Orders[i].polyline()
			break
		}
	}

	submitted := c.now().Unix()
	routeID := submitted
	lastVisit := req.Window.From
	prev := c.depot.Coord
	sequence := 0
	maxID := 0

	orders := make([]routeOrder, 0, len(unit.Orders)+2)
	orders = append(orders, c.depotOrder(req, startDepotOrderID, DepotStartFlag, routeSchedule{
		VisitTime: lastVisit,
		Gap:       minVisitGapSeconds,
		RouteID:   routeID,
		Index:     sequence,
		Mileage:   0,
	}, "", submitted))

	for _, resp := range unit.Orders {
		name, ok := idToName[resp.ID]
		if !ok {
			continue
		}
		stop, ok := nameToStop[name]
		if !ok {
			continue
		}

		// Normalize the planned visit time: monotonic, at least 60s after
		// the previous stop and never before the window opens.
		visit := resp.Time
		if visit <= 0 {
			visit = lastVisit + defaultLegSeconds
		} else {
			visit = max(visit, lastVisit+minVisitGapSeconds, req.Window.From)
		}

		mileage := prev.DistanceMeters(stop.Coord)

		polyline := resp.polyline()
		if polyline == "" {
			polyline = c.legPolyline(ctx, prev, stop.Coord)
		}

		sequence++
		if resp.ID > maxID {
			maxID = resp.ID
		}

		weight := strconv.Itoa(stop.WeightKg())
		cost := strconv.Itoa(int(stop.Amount))

		orders = append(orders, routeOrder{
			UnitID: req.Unit.UnitID,
			ID:     resp.ID,
			Name:   name,
			Params: routeOrderParams{
				Unloading: unloadingSeconds,
				Repeating: true,
				Weight:    weight,
				Cost:      cost,
				Schedule: routeSchedule{
					VisitTime: visit,
					Gap:       minVisitGapSeconds,
					RouteID:   routeID,
					Index:     sequence,
					Mileage:   mileage,
				},
				Unit:      req.Unit.UnitID,
				Address:   stopAddress(stop),
				WeightDup: weight,
				CostDup:   cost,
			},
			Flags:     CustomerOrderFlag,
			From:      req.Window.From,
			To:        req.Window.To,
			Radius:    customerRadiusMeters,
			Lat:       stop.Coord.Lat,
			Lon:       stop.Coord.Lon,
			Submitted: submitted,
			CNM:       0,
			Polyline:  polyline,
			EJ:        map[string]any{},
			CF:        map[string]any{},
			Compat:    emptyCompat(),
			GFN:       geofences{Geofences: map[string]any{}},
			CallMode:  "create",
			Unit:      req.Unit.UnitID,
			Weight:    weight,
			Cost:      cost,
			Cargo:     cargo{Weight: weight, Cost: cost},
		})

		prev = stop.Coord
		lastVisit = visit
	}

	// Closing depot leg.
	if endDepotPolyline == "" {
		endDepotPolyline = c.legPolyline(ctx, prev, c.depot.Coord)
	}
	sequence++
	orders = append(orders, c.depotOrder(req, maxID+1, DepotEndFlag, routeSchedule{
		VisitTime: lastVisit + defaultLegSeconds,
		Gap:       minVisitGapSeconds,
		RouteID:   routeID,
		Index:     sequence,
		Mileage:   prev.DistanceMeters(c.depot.Coord),
	}, endDepotPolyline, submitted))

	return orders, summarize(orders, unit)
}

// depotOrder builds a synthetic warehouse stop (zero weight and cost).
func (c *Client) depotOrder(req ports.RoutePlanRequest, id, flag int, schedule routeSchedule, polyline string, submitted int64) routeOrder {
	return routeOrder{
		UnitID: req.Unit.UnitID,
		ID:     id,
		Name:   c.depot.Name,
		Params: routeOrderParams{
			Unloading: 0,
			Repeating: true,
			Weight:    "0",
			Cost:      "0",
			Schedule:  schedule,
			Unit:      req.Unit.UnitID,
			Address:   c.depotAddress(),
			WeightDup: "0",
			CostDup:   "0",
		},
		Flags:     flag,
		From:      req.Window.From,
		To:        req.Window.To,
		Radius:    depotRadiusMeters,
		Lat:       c.depot.Coord.Lat,
		Lon:       c.depot.Coord.Lon,
		Submitted: submitted,
		CNM:       0,
		Polyline:  polyline,
		EJ:        map[string]any{},
		CF:        map[string]any{},
		Compat:    emptyCompat(),
		GFN:       geofences{Geofences: map[string]any{}},
		CallMode:  "create",
		Unit:      req.Unit.UnitID,
		Weight:    "0",
		Cost:      "0",
		Cargo:     cargo{Weight: "0", Cost: "0"},
	}
}

// legPolyline asks the fallback road-routing service for leg geometry.
// Failures only degrade output quality; they never abort assembly.
func (c *Client) legPolyline(ctx context.Context, from, to domain.Coordinates) string {
	if c.geometry == nil {
		return ""
	}
	polyline, err := c.geometry.RoutePolyline(ctx, from, to)
	if err != nil {
		log.Printf("op=wialon.legPolyline err=%v", err)
		return ""
	}
	return polyline
}

// summarize computes route totals: mileage over every leg, weight and cost
// over customer stops only.
func summarize(orders []routeOrder, unit optimizedUnit) routeSummaryTotals {
	totalMileage := 0
	totalWeight := 0
	totalCost := 0.0

	for _, o := range orders {
		totalMileage += o.Params.Schedule.Mileage
		if o.Flags != CustomerOrderFlag {
			continue
		}
		if w, err := strconv.Atoi(o.Params.Weight); err == nil {
			totalWeight += w
		}
		if cost, err := strconv.ParseFloat(o.Params.Cost, 64); err == nil {
			totalCost += cost
		}
	}

	duration := int64(0)
	if len(unit.Routes) > 0 {
		duration = unit.Routes[0].Duration
	}

	return routeSummaryTotals{
		CountOrders:  len(orders),
		Duration:     duration,
		Mileage:      totalMileage,
		PriceMileage: float64(totalMileage) / 1000,
		PriceTotal:   totalCost,
		Weight:       totalWeight,
		Cost:         totalCost,
	}
}

func (c *Client) depotAddress() string {
	return fmt.Sprintf("%s (%v, %v)", c.depot.Name, c.depot.Coord.Lat, c.depot.Coord.Lon)
}

func stopAddress(s domain.Stop) string {
	return fmt.Sprintf("%s (%v, %v)", s.Location, s.Coord.Lat, s.Coord.Lon)
}
