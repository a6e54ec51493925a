// Package geocode resolves device coordinates to a human-readable place
// string via a Nominatim-style reverse-geocoding endpoint. Resolution is
// best-effort: every failure recovers to the UnknownLocation sentinel and is
// never surfaced to the caller as an error.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"clipway/pkg/config"
)

// UnknownLocation is the fallback place string used when geolocation cannot
// be resolved.
const UnknownLocation = "Unknown Location"

type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint:  cfg.GeocodeEndpoint,
		userAgent: cfg.GeocodeUserAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ReverseGeocode reduces a coordinate pair to "{city|town|village}, {country}".
// A missing city-level field leaves that segment empty; any transport or
// parsing failure yields UnknownLocation.
func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) string {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", latitude))
	query.Set("lon", fmt.Sprintf("%f", longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return UnknownLocation
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UnknownLocation
	}

	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}

	return fmt.Sprintf("%s, %s", city, result.Address.Country)
}
