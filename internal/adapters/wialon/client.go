package wialon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
)

// Per-call timeouts. Every remote call is attempted exactly once; a timeout
// or transport fault is reported immediately as a failure.
const (
	loginTimeout    = 30 * time.Second
	optimizeTimeout = 60 * time.Second
	batchTimeout    = 60 * time.Second
)

// Depot is the fixed warehouse bracketing every route as both origin and
// destination.
type Depot struct {
	Name  string
	Coord domain.Coordinates
}

// Client implements RoutePlanner against the Wialon logistics API.
//
// The API is a single endpoint taking form-encoded calls: svc names the
// remote procedure, params is a JSON document, sid the session. The client
// coordinates the three-call sequence (token/login, order/optimize,
// core/batch route_update) plus fallback polyline lookups.
type Client struct {
	session  *http.Client
	apiURL   string
	appsURL  string
	depot    Depot
	loc      *time.Location
	geometry ports.GeometryProvider
	now      func() time.Time
}

type Config struct {
	// APIURL is the ajax endpoint, e.g. https://hst-api.wialon.com/wialon/ajax.html.
	APIURL string
	// AppsURL is the base for the shareable plan link, e.g. https://apps.wialon.com.
	AppsURL string
	Depot   Depot
	// Location is the local timezone used for route naming.
	Location *time.Location
}

func NewClient(cfg Config, geometry ports.GeometryProvider) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("wialon client: API URL is empty")
	}
	if cfg.AppsURL == "" {
		return nil, errors.New("wialon client: apps URL is empty")
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Client{
		// Deadlines are set per call; the three calls have different budgets.
		session:  &http.Client{},
		apiURL:   cfg.APIURL,
		appsURL:  cfg.AppsURL,
		depot:    cfg.Depot,
		loc:      loc,
		geometry: geometry,
		now:      time.Now,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// call posts one form-encoded remote procedure and returns the raw body.
func (c *Client) call(ctx context.Context, timeout time.Duration, svc string, params any, sid string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", svc, err)
	}

	form := url.Values{}
	form.Set("svc", svc)
	form.Set("params", string(payload))
	if sid != "" {
		form.Set("sid", sid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", svc, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", svc, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", svc, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

type loginParams struct {
	Token string `json:"token"`
}

// login exchanges the token for a session id.
func (c *Client) login(ctx context.Context, token string) (_ string, err error) {
	defer obs.Time(ctx, "wialon.login")(&err)

	body, err := c.call(ctx, loginTimeout, "token/login", loginParams{Token: strings.TrimSpace(token)}, "")
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("login failed: %s", strings.TrimSpace(string(body)))
	}

	raw, ok := decoded["eid"]
	if !ok {
		return "", fmt.Errorf("login failed: %s", strings.TrimSpace(string(body)))
	}

	var sid string
	if err := json.Unmarshal(raw, &sid); err != nil || sid == "" {
		return "", fmt.Errorf("login failed: %s", strings.TrimSpace(string(body)))
	}

	return sid, nil
}

// optimize submits the order list and interprets the per-vehicle response.
func (c *Client) optimize(ctx context.Context, sid string, unitID int64, params optimizeParams) (_ optimizedUnit, err error) {
	defer obs.Time(ctx, "wialon.optimize")(&err)

	body, err := c.call(ctx, optimizeTimeout, "order/optimize", params, sid)
	if err != nil {
		return optimizedUnit{}, fmt.Errorf("optimize orders: %w", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return optimizedUnit{}, fmt.Errorf("decode optimize response: %w", err)
	}

	if raw, ok := decoded["error"]; ok {
		var re remoteError
		re.Reason = "Optimization failed"
		_ = json.Unmarshal(raw, &re.Error)
		if r, ok := decoded["reason"]; ok {
			_ = json.Unmarshal(r, &re.Reason)
		}
		if re.Error != 0 {
			return optimizedUnit{}, fmt.Errorf("optimization failed (code %d): %s", re.Error, re.Reason)
		}
	}

	raw, ok := decoded[strconv.FormatInt(unitID, 10)]
	if !ok {
		return optimizedUnit{}, errors.New("no optimized orders in response")
	}

	var unit optimizedUnit
	if err := json.Unmarshal(raw, &unit); err != nil {
		return optimizedUnit{}, fmt.Errorf("decode optimized unit: %w", err)
	}
	if len(unit.Orders) == 0 {
		return optimizedUnit{}, errors.New("no optimized orders in response")
	}

	return unit, nil
}

// createRouteBatch persists the assembled route via a single-operation batch.
// The endpoint answers with either a list or an object; any element with a
// nonzero error code fails the call.
func (c *Client) createRouteBatch(ctx context.Context, sid string, params routeUpdateParams) (err error) {
	defer obs.Time(ctx, "wialon.createRoute")(&err)

	batch := batchParams{
		Params: []batchCall{{Svc: "order/route_update", Params: params}},
		Flags:  0,
	}

	body, err := c.call(ctx, batchTimeout, "core/batch", batch, sid)
	if err != nil {
		return fmt.Errorf("create route: %w", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var elements []json.RawMessage
		if err := json.Unmarshal(body, &elements); err != nil {
			return fmt.Errorf("decode batch response: %w", err)
		}
		for _, raw := range elements {
			var el remoteError
			// Non-object elements carry no error information.
			if json.Unmarshal(raw, &el) != nil {
				continue
			}
			if el.Error != 0 {
				reason := el.Reason
				if reason == "" {
					reason = "Unknown error in batch response"
				}
				return fmt.Errorf("route creation failed (code %d): %s", el.Error, reason)
			}
		}
		return nil
	}

	var re remoteError
	if err := json.Unmarshal(body, &re); err != nil {
		return fmt.Errorf("unexpected batch response: %s", trimmed)
	}
	if re.Error != 0 {
		reason := re.Reason
		if reason == "" {
			reason = "Unknown error in batch response"
		}
		return fmt.Errorf("route creation failed (code %d): %s", re.Error, reason)
	}

	return nil
}

// planURL is the shareable link into the vendor's planning UI.
func (c *Client) planURL(sid string) string {
	return fmt.Sprintf("%s/logistics/?lang=en&sid=%s#/distrib/step3", c.appsURL, sid)
}
