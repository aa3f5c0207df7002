package wialon

import "encoding/json"

// Wire-level constants of the logistics platform. These are part of the
// vendor's protocol contract and must be reproduced exactly.
const (
	// Order flags distinguishing stop roles in a route.
	DepotStartFlag    = 260
	DepotEndFlag      = 264
	CustomerOrderFlag = 0

	// Stop radii in meters.
	customerRadiusMeters = 20
	depotRadiusMeters    = 100

	// Flat per-stop service (unloading) allowance in seconds.
	unloadingSeconds = 900

	// Feature bitmask for order/optimize.
	optimizeFlags = 524419

	// Synthetic warehouse ids bracketing the order list.
	startDepotOrderID = 0
	endDepotOrderID   = 99999

	routingProfile = "driving"
	trafficModel   = "best_guess"

	// Visit-time spacing: minimum gap between consecutive stops and the
	// default leg duration when the optimizer supplies no usable time.
	minVisitGapSeconds = 60
	defaultLegSeconds  = 600

	routeExpirySeconds = 3600
)

// ---- order/optimize request ----

type orderCriterions struct {
	MaxLate          int `json:"max_late"`
	UseUnloadingLate int `json:"use_unloading_late"`
}

type unitRequirements struct {
	Values []any `json:"values"`
}

type orderCompat struct {
	UnitRequirements unitRequirements `json:"unitRequirements"`
}

func emptyCompat() orderCompat {
	return orderCompat{UnitRequirements: unitRequirements{Values: []any{}}}
}

type optimizeOrderParams struct {
	Unloading  int             `json:"ut"`
	Repeating  bool            `json:"rep"`
	WeightKg   int             `json:"w"`
	Volume     int             `json:"v"`
	Priority   int             `json:"pr"`
	Criterions orderCriterions `json:"criterions"`
	Address    string          `json:"a"`
}

type optimizeOrder struct {
	Lat    float64             `json:"y"`
	Lon    float64             `json:"x"`
	From   int64               `json:"tf"`
	To     int64               `json:"tt"`
	Name   string              `json:"n"`
	Flags  int                 `json:"f"`
	Radius int                 `json:"r"`
	ID     int                 `json:"id"`
	Params optimizeOrderParams `json:"p"`
	Compat orderCompat         `json:"cmp"`
}

type warehouse struct {
	ID      int     `json:"id"`
	Lat     float64 `json:"y"`
	Lon     float64 `json:"x"`
	Name    string  `json:"n"`
	Flags   int     `json:"f"`
	Address string  `json:"a"`
}

type gisParams struct {
	AddPoints     int      `json:"addPoints"`
	Provider      int      `json:"provider"`
	Speed         int      `json:"speed"`
	CityJams      int      `json:"cityJams"`
	CountryJams   int      `json:"countryJams"`
	Mode          string   `json:"mode"`
	DepartureTime int      `json:"departure_time"`
	Avoid         []string `json:"avoid"`
	TrafficModel  string   `json:"traffic_model"`
}

type optimizeCriterions struct {
	PenaltiesProfile string `json:"penalties_profile"`
}

type depotPoint struct {
	Name    string  `json:"n"`
	Lat     float64 `json:"y"`
	Lon     float64 `json:"x"`
	Address string  `json:"a"`
}

type optimizeParams struct {
	ItemID     int64              `json:"itemId"`
	Orders     []optimizeOrder    `json:"orders"`
	Warehouses []warehouse        `json:"warehouses"`
	Flags      int                `json:"flags"`
	Units      []int64            `json:"units"`
	GIS        gisParams          `json:"gis"`
	Priority   map[string]any     `json:"priority"`
	Criterions optimizeCriterions `json:"criterions"`
	PointFrom  depotPoint         `json:"pf"`
	PointTo    depotPoint         `json:"pt"`
	From       int64              `json:"tf"`
	To         int64              `json:"tt"`
}

// ---- order/optimize response ----

type optimizedOrder struct {
	ID    int   `json:"id"`
	Flags int   `json:"f"`
	Time  int64 `json:"tm"`
	// rp carries the leg polyline; some responses put it in p instead.
	RawRP json.RawMessage `json:"rp"`
	RawP  json.RawMessage `json:"p"`
}

// polyline extracts the leg geometry if the optimizer supplied one.
func (o optimizedOrder) polyline() string {
	for _, raw := range []json.RawMessage{o.RawRP, o.RawP} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

type optimizedRouteSummary struct {
	Duration int64 `json:"duration"`
}

type optimizedUnit struct {
	Orders []optimizedOrder        `json:"orders"`
	Routes []optimizedRouteSummary `json:"routes"`
}

type remoteError struct {
	Error  int    `json:"error"`
	Reason string `json:"reason"`
}

// ---- order/route_update (via core/batch) ----

type routeSchedule struct {
	VisitTime int64 `json:"vt"`
	Gap       int   `json:"ndt"`
	RouteID   int64 `json:"id"`
	Index     int   `json:"i"`
	Mileage   int   `json:"m"`
	T         int   `json:"t"`
}

type routeOrderParams struct {
	Unloading int           `json:"ut"`
	Repeating bool          `json:"rep"`
	Weight    string        `json:"w"`
	Cost      string        `json:"c"`
	Schedule  routeSchedule `json:"r"`
	Unit      int64         `json:"u"`
	Address   string        `json:"a"`
	WeightDup string        `json:"weight"`
	CostDup   string        `json:"cost"`
}

type cargo struct {
	Weight string `json:"weight"`
	Cost   string `json:"cost"`
}

type geofences struct {
	Geofences map[string]any `json:"geofences"`
}

type routeOrder struct {
	UnitID    int64            `json:"uid"`
	ID        int              `json:"id"`
	Name      string           `json:"n"`
	Params    routeOrderParams `json:"p"`
	Flags     int              `json:"f"`
	From      int64            `json:"tf"`
	To        int64            `json:"tt"`
	Radius    int              `json:"r"`
	Lat       float64          `json:"y"`
	Lon       float64          `json:"x"`
	S         int              `json:"s"`
	SF        int              `json:"sf"`
	TRT       int              `json:"trt"`
	Submitted int64            `json:"st"`
	CNM       int              `json:"cnm"`
	Polyline  string           `json:"rp,omitempty"`
	EJ        map[string]any   `json:"ej"`
	CF        map[string]any   `json:"cf"`
	Compat    orderCompat      `json:"cmp"`
	GFN       geofences        `json:"gfn"`
	CallMode  string           `json:"callMode"`
	Unit      int64            `json:"u"`
	Weight    string           `json:"weight"`
	Cost      string           `json:"cost"`
	Cargo     cargo            `json:"cargo"`
}

type routeSummaryTotals struct {
	CountOrders  int     `json:"countOrders"`
	Duration     int64   `json:"duration"`
	Mileage      int     `json:"mileage"`
	PriceMileage float64 `json:"priceMileage"`
	PriceTotal   float64 `json:"priceTotal"`
	Weight       int     `json:"weight"`
	Cost         float64 `json:"cost"`
}

type routeUpdateParams struct {
	ItemID   int64              `json:"itemId"`
	Orders   []routeOrder       `json:"orders"`
	UID      int64              `json:"uid"`
	CallMode string             `json:"callMode"`
	Exp      int                `json:"exp"`
	Flags    int                `json:"f"`
	Name     string             `json:"n"`
	Summary  routeSummaryTotals `json:"summary"`
}

type batchCall struct {
	Svc    string            `json:"svc"`
	Params routeUpdateParams `json:"params"`
}

type batchParams struct {
	Params []batchCall `json:"params"`
	Flags  int         `json:"flags"`
}
