package autoseg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Ensure HTTPRouter implements Router at compile time.
var _ Router = (*HTTPRouter)(nil)

const (
	defaultRoutingURL = "http://127.0.0.1:5000"
	DefaultProfile    = "foot"
	defaultUserAgent  = "trailedit/0.1"
	requestTimeout    = 10 * time.Second
)

// HTTPRouter talks to an OSRM-compatible routing service.
type HTTPRouter struct {
	baseURL   *url.URL
	profile   string
	http      *http.Client
	userAgent string
}

// NewHTTPRouter builds a router for routingURL. Empty values fall back to a
// local service and the foot profile.
func NewHTTPRouter(routingURL, profile string) (*HTTPRouter, error) {
	base, err := parseBaseURL(routingURL)
	if err != nil {
		return nil, err
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = DefaultProfile
	}
	return &HTTPRouter{
		baseURL:   base,
		profile:   profile,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64          `json:"distance"`
		Geometry geojson.Geometry `json:"geometry"`
	} `json:"routes"`
}

// Route fetches the walking route between from and to (lon/lat).
func (r *HTTPRouter) Route(ctx context.Context, from, to orb.Point) (orb.LineString, error) {
	if r == nil {
		return nil, fmt.Errorf("router is nil")
	}
	coords := formatPoint(from) + ";" + formatPoint(to)
	values := url.Values{}
	values.Set("geometries", "geojson")
	values.Set("overview", "full")
	rel := &url.URL{
		Path:     path.Join("/", r.baseURL.Path, "route/v1", r.profile, coords),
		RawQuery: values.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var payload routeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && payload.Code == "NoRoute" {
			return nil, ErrNoRoute
		}
		if decodeErr == nil && payload.Message != "" {
			return nil, fmt.Errorf("routing returned status %d: %s", resp.StatusCode, payload.Message)
		}
		return nil, fmt.Errorf("routing returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if payload.Code != "" && payload.Code != "Ok" {
		if payload.Code == "NoRoute" {
			return nil, ErrNoRoute
		}
		return nil, fmt.Errorf("routing returned %s: %s", payload.Code, payload.Message)
	}
	if len(payload.Routes) == 0 {
		return nil, ErrNoRoute
	}

	line, ok := payload.Routes[0].Geometry.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("decode response: geometry is %s, want LineString", payload.Routes[0].Geometry.Type)
	}
	return line, nil
}

func formatPoint(p orb.Point) string {
	return strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
}

func parseBaseURL(routingURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(routingURL)
	if trimmed == "" {
		trimmed = defaultRoutingURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse routing_url %q: %w", routingURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
