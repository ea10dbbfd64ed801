package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/stylecast/pkg/errors"
)

func TestServiceCurrentByCity(t *testing.T) {
	want := Observation{City: "Seoul", Temperature: 21.5, ConditionCode: "01d"}
	provider := &stubProvider{current: want}
	svc := NewService(provider, NewAggregator(nil), testLogger())

	got, err := svc.Current(context.Background(), CurrentRequest{City: " Seoul "})
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, "Seoul", provider.lastCity)
}

func TestServiceCurrentPrefersCoords(t *testing.T) {
	provider := &stubProvider{current: Observation{City: "Busan"}}
	svc := NewService(provider, NewAggregator(nil), testLogger())

	_, err := svc.Current(context.Background(), CurrentRequest{City: "Seoul", Lat: 35.1, Lon: 129.0, HasCoords: true})
	require.NoError(t, err)
	require.True(t, provider.coordsUsed)
	require.Empty(t, provider.lastCity)
}

func TestServiceCurrentMissingLocation(t *testing.T) {
	svc := NewService(&stubProvider{}, NewAggregator(nil), testLogger())

	_, err := svc.Current(context.Background(), CurrentRequest{City: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestServiceForecastAggregates(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	provider := &stubProvider{samples: []Sample{
		{Timestamp: start, Temperature: 9, TemperatureMin: 7, TemperatureMax: 11, ConditionCode: "10d"},
		{Timestamp: start.Add(3 * time.Hour), Temperature: 12, TemperatureMin: 9, TemperatureMax: 14, ConditionCode: "01d"},
	}}
	svc := NewService(provider, NewAggregator(time.UTC), testLogger())

	report, err := svc.Forecast(context.Background(), 37.5, 127.0)
	require.NoError(t, err)
	require.Len(t, report.Hourly, 2)
	require.Len(t, report.Daily, 1)
	require.Equal(t, "10d", report.Daily[0].ConditionCode)
}

func TestServiceForecastProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream down")}
	svc := NewService(provider, NewAggregator(nil), testLogger())

	_, err := svc.Forecast(context.Background(), 0, 0)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "weather_error"))
}

type stubProvider struct {
	current    Observation
	samples    []Sample
	err        error
	lastCity   string
	coordsUsed bool
}

func (s *stubProvider) CurrentByCoords(_ context.Context, lat, lon float64) (Observation, error) {
	s.coordsUsed = true
	return s.current, s.err
}

func (s *stubProvider) CurrentByCity(_ context.Context, city string) (Observation, error) {
	s.lastCity = city
	return s.current, s.err
}

func (s *stubProvider) FiveDayForecast(_ context.Context, lat, lon float64) ([]Sample, error) {
	return s.samples, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
