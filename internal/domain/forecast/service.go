package forecast

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/stylecast/pkg/errors"
)

// Provider fetches weather data from the upstream API. The domain treats it
// purely as a data source: no caching, no retry beyond what the adapter does.
type Provider interface {
	CurrentByCoords(ctx context.Context, lat, lon float64) (Observation, error)
	CurrentByCity(ctx context.Context, city string) (Observation, error)
	FiveDayForecast(ctx context.Context, lat, lon float64) ([]Sample, error)
}

// CurrentRequest selects a location either by coordinates or by city name.
type CurrentRequest struct {
	City      string
	Lat       float64
	Lon       float64
	HasCoords bool
}

// Service exposes the weather views consumed by the API layer.
type Service interface {
	Current(ctx context.Context, req CurrentRequest) (Observation, error)
	Forecast(ctx context.Context, lat, lon float64) (Report, error)
}

type service struct {
	provider   Provider
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewService wires up the forecast domain.
func NewService(provider Provider, aggregator *Aggregator, logger *slog.Logger) Service {
	return &service{
		provider:   provider,
		aggregator: aggregator,
		logger:     logger.With("component", "forecast.service"),
	}
}

func (s *service) Current(ctx context.Context, req CurrentRequest) (Observation, error) {
	city := strings.TrimSpace(req.City)
	switch {
	case req.HasCoords:
		obs, err := s.provider.CurrentByCoords(ctx, req.Lat, req.Lon)
		if err != nil {
			return Observation{}, apperrors.Wrap("weather_error", "failed to fetch current weather", err)
		}
		return obs, nil
	case city != "":
		obs, err := s.provider.CurrentByCity(ctx, city)
		if err != nil {
			return Observation{}, apperrors.Wrap("weather_error", "failed to fetch current weather", err)
		}
		return obs, nil
	default:
		return Observation{}, apperrors.Wrap("invalid_input", "either coordinates or a city name is required", nil)
	}
}

func (s *service) Forecast(ctx context.Context, lat, lon float64) (Report, error) {
	samples, err := s.provider.FiveDayForecast(ctx, lat, lon)
	if err != nil {
		return Report{}, apperrors.Wrap("weather_error", "failed to fetch forecast", err)
	}
	report := s.aggregator.Aggregate(samples)
	s.logger.Info("forecast aggregated", "samples", len(samples), "hourly", len(report.Hourly), "daily", len(report.Daily))
	return report, nil
}
