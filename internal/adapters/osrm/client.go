package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fleet-dispatch-service/internal/domain"
)

// Timeout for fallback geometry lookups. One attempt, no retries; callers
// treat failures as "no geometry".
const requestTimeout = 15 * time.Second

// Client implements GeometryProvider against an OSRM-compatible road router.
type Client struct {
	session *http.Client
	baseURL string
}

func NewClient(baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("osrm client: base URL is empty")
	}
	return &Client{
		session: &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type routeResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// RoutePolyline fetches the full-overview encoded polyline for a
// point-to-point driving route.
func (c *Client) RoutePolyline(ctx context.Context, origin, destination domain.Coordinates) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/route/v1/driving/%v,%v;%v,%v?overview=full&geometries=polyline",
		c.baseURL, origin.Lon, origin.Lat, destination.Lon, destination.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create route request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return "", fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("route request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode route response: %w", err)
	}

	if len(decoded.Routes) == 0 || decoded.Routes[0].Geometry == "" {
		return "", errors.New("no routes in response")
	}

	return decoded.Routes[0].Geometry, nil
}
