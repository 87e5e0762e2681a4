// Package weather fetches a daily high/low from the open-meteo forecast API.
// Lookups are best effort: any failure yields no forecast.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
)

const DefaultBaseURL = "https://api.open-meteo.com"

// FallbackCoordinate is used for events that have no location yet.
var FallbackCoordinate = domain.Coordinate{Latitude: 34.05, Longitude: -118.25}

type Forecast struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// Summary renders "H° / L°" with the temperatures truncated to integers.
func (f Forecast) Summary() string {
	return fmt.Sprintf("%d° / %d°", int(f.High), int(f.Low))
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

type forecastResponse struct {
	Daily struct {
		Max []float64 `json:"temperature_2m_max"`
		Min []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// FetchForecast returns today's forecast at lat/lon, or nil.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) *Forecast {
	f, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.Logger.Debug("forecast unavailable", "error", err)
		return nil
	}
	return f
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}

	// A missing day reads as zero rather than no forecast at all.
	f := &Forecast{}
	if len(body.Daily.Max) > 0 {
		f.High = body.Daily.Max[0]
	}
	if len(body.Daily.Min) > 0 {
		f.Low = body.Daily.Min[0]
	}
	return f, nil
}
