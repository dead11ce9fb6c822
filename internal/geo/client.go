package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Client is an HTTP implementation of Provider backed by a structured-query
// geocoding endpoint (Nominatim-compatible).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

var _ Provider = (*Client)(nil)

// geocodeResult is a single match returned by the geocoding endpoint.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve converts a structured address into coordinates.
func (c *Client) Resolve(ctx context.Context, country, city, street, house string) (Coordinates, error) {
	params := url.Values{}
	params.Set("country", country)
	params.Set("city", city)
	params.Set("street", house+" "+street)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocoding request: unexpected status %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("geocoding response: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrUnresolvable
	}

	var coords Coordinates
	if coords.Lat, err = strconv.ParseFloat(results[0].Lat, 64); err != nil {
		return Coordinates{}, ErrUnresolvable
	}
	if coords.Lng, err = strconv.ParseFloat(results[0].Lon, 64); err != nil {
		return Coordinates{}, ErrUnresolvable
	}
	return coords, nil
}

// DistanceMeters returns the great-circle distance between two points.
func (c *Client) DistanceMeters(from, to Coordinates) float64 {
	return HaversineMeters(from, to)
}
