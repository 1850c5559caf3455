package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// detailFields mirrors what the map UI renders for a selected place.
const detailFields = "name,formatted_address,formatted_phone_number,opening_hours,rating,price_level,photos,geometry"

// Client is a thin adapter over the Google Places API. Responses are
// passed through untouched; nothing is cached or persisted.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL points the adapter at a different upstream, used
// by tests to substitute a local server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type SearchResponse struct {
	Results json.RawMessage `json:"results"`
	Status  string          `json:"status"`
}

type DetailsResponse struct {
	Result json.RawMessage `json:"result"`
	Status string          `json:"status"`
}

// NearbySearch looks up restaurants around a coordinate. The type filter
// is fixed upstream; radius is in meters.
func (c *Client) NearbySearch(ctx context.Context, lat, lng float64, radius int, openNow bool) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%g,%g", lat, lng))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("type", "restaurant")
	params.Set("key", c.apiKey)
	if openNow {
		params.Set("opennow", "true")
	}

	var resp SearchResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Details(ctx context.Context, placeID string) (*DetailsResponse, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("key", c.apiKey)

	var resp DetailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places upstream returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}
