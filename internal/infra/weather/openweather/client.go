package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/stylecast/internal/domain/forecast"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

var (
	errRateLimited = errors.New("openweather rate limited")
	errServerError = errors.New("openweather server error")
	errCircuitOpen = errors.New("openweather circuit open")
)

// Client calls the OpenWeather REST API. All requests use metric units; every
// call goes through a shared circuit breaker with bounded retries so one
// flapping upstream cannot pile up goroutines.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker

	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewClient constructs an OpenWeather client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		maxRetries:      2,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
	}, nil
}

// CurrentByCoords fetches the current conditions at a coordinate pair.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64) (forecast.Observation, error) {
	query := url.Values{}
	query.Set("lat", formatCoord(lat))
	query.Set("lon", formatCoord(lon))
	return c.current(ctx, query)
}

// CurrentByCity fetches the current conditions for a named city.
func (c *Client) CurrentByCity(ctx context.Context, city string) (forecast.Observation, error) {
	query := url.Values{}
	query.Set("q", city)
	return c.current(ctx, query)
}

func (c *Client) current(ctx context.Context, query url.Values) (forecast.Observation, error) {
	body, err := c.doRequest(ctx, "/weather", query)
	if err != nil {
		return forecast.Observation{}, err
	}

	var payload currentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return forecast.Observation{}, fmt.Errorf("decode current weather: %w", err)
	}

	obs := forecast.Observation{
		City:           payload.Name,
		Timestamp:      time.Unix(payload.Dt, 0).UTC(),
		Temperature:    payload.Main.Temp,
		FeelsLike:      payload.Main.FeelsLike,
		TemperatureMin: payload.Main.TempMin,
		TemperatureMax: payload.Main.TempMax,
		Humidity:       payload.Main.Humidity,
	}
	if len(payload.Weather) > 0 {
		obs.ConditionCode = payload.Weather[0].Icon
		obs.Description = payload.Weather[0].Description
	}
	return obs, nil
}

// FiveDayForecast fetches the 5-day forecast in 3-hour steps, preserving the
// upstream sample order.
func (c *Client) FiveDayForecast(ctx context.Context, lat, lon float64) ([]forecast.Sample, error) {
	query := url.Values{}
	query.Set("lat", formatCoord(lat))
	query.Set("lon", formatCoord(lon))

	body, err := c.doRequest(ctx, "/forecast", query)
	if err != nil {
		return nil, err
	}

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	samples := make([]forecast.Sample, 0, len(payload.List))
	for _, entry := range payload.List {
		sample := forecast.Sample{
			Timestamp:         time.Unix(entry.Dt, 0).UTC(),
			Temperature:       entry.Main.Temp,
			TemperatureMin:    entry.Main.TempMin,
			TemperatureMax:    entry.Main.TempMax,
			PrecipProbability: entry.Pop,
		}
		if len(entry.Weather) > 0 {
			sample.ConditionCode = entry.Weather[0].Icon
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.fetch(ctx, endpoint)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(err) || attempt >= c.maxRetries {
			return nil, err
		}

		delay := c.initialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.maxInterval {
			delay = c.maxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build openweather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request openweather: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, errServerError
	case resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("openweather request failed: status=%d body=%s", resp.StatusCode, string(payload))
	}
	return io.ReadAll(resp.Body)
}

func retryable(err error) bool {
	return errors.Is(err, errRateLimited) || errors.Is(err, errServerError)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type currentPayload struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Icon        string `json:"icon"`
		Description string `json:"description"`
	} `json:"weather"`
}

type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp    float64 `json:"temp"`
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Icon string `json:"icon"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

var _ forecast.Provider = (*Client)(nil)
