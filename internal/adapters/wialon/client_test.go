package wialon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeAPI answers the three-call sequence and records what it was sent.
type fakeAPI struct {
	t              *testing.T
	loginBody      string
	optimizeBody   string
	batchBody      string
	optimizeParams string
	batchParams    string
	batchCalled    bool
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			f.t.Errorf("parse form: %v", err)
		}
		switch svc := r.FormValue("svc"); svc {
		case "token/login":
			fmt.Fprint(w, f.loginBody)
		case "order/optimize":
			if sid := r.FormValue("sid"); sid != "SID123" {
				f.t.Errorf("optimize sid = %q, want SID123", sid)
			}
			f.optimizeParams = r.FormValue("params")
			fmt.Fprint(w, f.optimizeBody)
		case "core/batch":
			f.batchCalled = true
			f.batchParams = r.FormValue("params")
			fmt.Fprint(w, f.batchBody)
		default:
			f.t.Errorf("unexpected svc %q", svc)
		}
	}
}

func TestCreateRouteSequence(t *testing.T) {
	api := &fakeAPI{
		t:         t,
		loginBody: `{"eid":"SID123"}`,
		optimizeBody: `{"777":{"orders":[` +
			`{"id":1,"f":0,"tm":0,"rp":"poly-1"},` +
			`{"id":2,"f":0,"tm":0,"rp":"poly-2"},` +
			`{"id":99999,"f":264,"rp":"poly-end"}` +
			`],"routes":[{"duration":3600}]}}`,
		batchBody: `[{"error":0}]`,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := testPlanClient(srv.URL, &stubGeometry{polyline: "stub-leg"})

	planURL, err := c.CreateRoute(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}

	want := "https://apps.example.com/logistics/?lang=en&sid=SID123#/distrib/step3"
	if planURL != want {
		t.Fatalf("plan url = %q, want %q", planURL, want)
	}

	var sent optimizeParams
	if err := json.Unmarshal([]byte(api.optimizeParams), &sent); err != nil {
		t.Fatalf("decode optimize params: %v", err)
	}
	if len(sent.Orders) != 2 || sent.Flags != optimizeFlags {
		t.Fatalf("optimize params = %d orders, flags %d", len(sent.Orders), sent.Flags)
	}

	var batch batchParams
	if err := json.Unmarshal([]byte(api.batchParams), &batch); err != nil {
		t.Fatalf("decode batch params: %v", err)
	}
	if len(batch.Params) != 1 || batch.Params[0].Svc != "order/route_update" {
		t.Fatalf("batch = %+v, want one order/route_update call", batch.Params)
	}

	update := batch.Params[0].Params
	if update.ItemID != 42 || update.CallMode != "create" || update.Exp != routeExpirySeconds {
		t.Fatalf("route update = %+v", update)
	}
	if len(update.Orders) != 4 {
		t.Fatalf("route has %d orders, want 4", len(update.Orders))
	}
	if update.UID != update.Orders[0].Params.Schedule.RouteID {
		t.Fatalf("uid = %d, schedule route id = %d", update.UID, update.Orders[0].Params.Schedule.RouteID)
	}
	// 1700000000 in UTC.
	if update.Name != "KBX 123Z - 2023-11-14 22:13" {
		t.Fatalf("route name = %q", update.Name)
	}
	if update.Summary.Weight != 3000 {
		t.Fatalf("summary weight = %d, want 3000", update.Summary.Weight)
	}
}

func TestCreateRouteLoginFailure(t *testing.T) {
	api := &fakeAPI{t: t, loginBody: `{"error":4,"reason":"invalid token"}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := testPlanClient(srv.URL, nil)

	_, err := c.CreateRoute(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Fatalf("expected login failure, got %v", err)
	}
}

func TestCreateRouteOptimizeFailure(t *testing.T) {
	api := &fakeAPI{
		t:            t,
		loginBody:    `{"eid":"SID123"}`,
		optimizeBody: `{"error":5,"reason":"boom"}`,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := testPlanClient(srv.URL, nil)

	_, err := c.CreateRoute(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected optimize failure carrying the remote reason, got %v", err)
	}
	if api.batchCalled {
		t.Fatal("route must not be persisted after a failed optimization")
	}
}

func TestCreateRouteMissingUnitInResponse(t *testing.T) {
	api := &fakeAPI{
		t:            t,
		loginBody:    `{"eid":"SID123"}`,
		optimizeBody: `{"888":{"orders":[{"id":1}]}}`,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := testPlanClient(srv.URL, nil)

	_, err := c.CreateRoute(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "no optimized orders") {
		t.Fatalf("expected missing-unit failure, got %v", err)
	}
}

func TestCreateRouteBatchFailure(t *testing.T) {
	api := &fakeAPI{
		t:         t,
		loginBody: `{"eid":"SID123"}`,
		optimizeBody: `{"777":{"orders":[{"id":1,"f":0,"tm":0,"rp":"poly-1"}],` +
			`"routes":[{"duration":600}]}}`,
		batchBody: `[{"error":3,"reason":"quota exceeded"}]`,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := testPlanClient(srv.URL, &stubGeometry{polyline: "stub-leg"})

	_, err := c.CreateRoute(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected batch failure carrying the remote reason, got %v", err)
	}
}

func TestCreateRouteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testPlanClient(srv.URL, nil)

	_, err := c.CreateRoute(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected HTTP status failure, got %v", err)
	}
}
