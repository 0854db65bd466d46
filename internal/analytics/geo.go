package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Location is the best-effort geolocation of a client IP.
type Location struct {
	Country string
	City    string
	Region  string
}

// UnknownLocation has every field set to Unknown.
var UnknownLocation = Location{Country: Unknown, City: Unknown, Region: Unknown}

// Locator resolves an IP address to a location.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// UnknownLocator never resolves anything.
type UnknownLocator struct{}

func (UnknownLocator) Locate(_ context.Context, _ string) (Location, error) {
	return UnknownLocation, nil
}

const defaultGeoTimeout = 2 * time.Second

// HTTPLocator queries a JSON geolocation service speaking the ip-api.com
// response format. The endpoint must contain a single %s for the IP.
type HTTPLocator struct {
	client   *http.Client
	endpoint string
}

// NewHTTPLocator creates a locator for endpoint, e.g.
// "http://ip-api.com/json/%s?fields=status,message,country,regionName,city".
func NewHTTPLocator(endpoint string, client *http.Client) *HTTPLocator {
	if client == nil {
		client = &http.Client{Timeout: defaultGeoTimeout}
	}

	return &HTTPLocator{client: client, endpoint: endpoint}
}

type geoResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

func (l *HTTPLocator) Locate(ctx context.Context, ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return UnknownLocation, nil
	}

	endpoint := fmt.Sprintf(l.endpoint, url.PathEscape(parsed.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return UnknownLocation, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return UnknownLocation, fmt.Errorf("geolocate %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation, fmt.Errorf("geolocate %s: unexpected status %d", ip, resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UnknownLocation, fmt.Errorf("geolocate %s: decode: %w", ip, err)
	}

	if body.Status != "" && body.Status != "success" {
		return UnknownLocation, fmt.Errorf("geolocate %s: %s", ip, body.Message)
	}

	return Location{
		Country: orUnknown(body.Country),
		City:    orUnknown(body.City),
		Region:  orUnknown(body.RegionName),
	}, nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Unknown
	}

	return s
}
