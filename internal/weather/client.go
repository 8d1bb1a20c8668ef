package weather

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
)

// DefaultBaseURL is the OpenWeatherMap current conditions endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Error kinds returned by Fetch.
var (
	ErrMissingCredential = errors.New("weather: api key not configured")
	ErrAuth              = errors.New("weather: api key rejected")
	ErrIncompleteData    = errors.New("weather: incomplete data")
	ErrNetwork           = errors.New("weather: request failed")
)

// Client talks to the OpenWeatherMap API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a weather client. A zero timeout keeps the default of 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type apiResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch issues a single request for the given coordinates. It never retries.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (Snapshot, error) {
	if c == nil || c.apiKey == "" {
		return Snapshot{}, ErrMissingCredential
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return Snapshot{}, ErrAuth
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return Snapshot{}, fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode: %w", ErrNetwork, err)
	}
	return payload.snapshot()
}

func (r apiResponse) snapshot() (Snapshot, error) {
	if r.Main == nil || len(r.Weather) == 0 {
		return Snapshot{}, ErrIncompleteData
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = UnknownLocation
	}
	snap := Snapshot{
		Temp:         r.Main.Temp,
		FeelsLike:    r.Main.FeelsLike,
		Description:  r.Weather[0].Description,
		Icon:         r.Weather[0].Icon,
		LocationName: name,
		Humidity:     r.Main.Humidity,
	}
	if r.Wind != nil && r.Wind.Speed != nil {
		speed := *r.Wind.Speed
		snap.WindSpeed = &speed
	}
	return snap, nil
}

// Notice converts a fetch error into the inline message shown next to the form.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "Invalid API Key. Please check your .env file."
	case errors.Is(err, ErrMissingCredential):
		return "OpenWeatherMap API Key not configured."
	case errors.Is(err, ErrIncompleteData):
		return "Received incomplete weather data from API."
	default:
		return "Could not fetch weather data. Check network or API status."
	}
}
