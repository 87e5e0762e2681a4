// Package geocode turns free-form addresses into coordinates using a
// Nominatim-compatible search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

var ErrNotFound = errors.New("geocode: no match for address")

// JoinAddress builds the query for an event: the full address and the city,
// skipping empty parts.
func JoinAddress(fullAddress *string, city string) string {
	parts := make([]string, 0, 2)
	if fullAddress != nil {
		if a := strings.TrimSpace(*fullAddress); a != "" {
			parts = append(parts, a)
		}
	}
	if c := strings.TrimSpace(city); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}

type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the best match for address, or ErrNotFound.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	if strings.TrimSpace(address) == "" {
		return domain.Coordinate{}, ErrNotFound
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return domain.Coordinate{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(places) == 0 {
		return domain.Coordinate{}, ErrNotFound
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if err := errors.Join(errLat, errLon); err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode: bad coordinate: %w", err)
	}

	coord := domain.Coordinate{Latitude: lat, Longitude: lon}
	if !coord.Valid() {
		return domain.Coordinate{}, fmt.Errorf("geocode: coordinate out of range: %v", coord)
	}
	return coord, nil
}
