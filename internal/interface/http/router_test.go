package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/stylecast/internal/domain/auth"
	"github.com/yanqian/stylecast/internal/domain/forecast"
	"github.com/yanqian/stylecast/internal/domain/likes"
	"github.com/yanqian/stylecast/internal/domain/outfit"
	"github.com/yanqian/stylecast/internal/infra/config"
	"github.com/yanqian/stylecast/internal/infra/likesstore"
	"github.com/yanqian/stylecast/internal/infra/userrepo"
)

type stubForecastService struct {
	current forecast.Observation
	report  forecast.Report
	err     error
}

func (s *stubForecastService) Current(context.Context, forecast.CurrentRequest) (forecast.Observation, error) {
	return s.current, s.err
}

func (s *stubForecastService) Forecast(context.Context, float64, float64) (forecast.Report, error) {
	return s.report, s.err
}

type testEnv struct {
	server *http.Server
	store  *likesstore.MemoryStore
}

func newTestEnv(t *testing.T, forecastSvc forecast.Service) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := likesstore.NewMemoryStore()
	likesSvc := likes.NewSync(store, logger)
	newSession := func() *likes.Sync { return likes.NewSync(store, logger) }

	authSvc := auth.NewService(auth.Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, userrepo.NewMemoryRepository(), logger)

	outfitSvc := outfit.NewService(nil, logger)
	handler := NewHandler(forecastSvc, outfitSvc, authSvc, likesSvc, newSession, logger)

	cfg := &config.Config{}
	cfg.HTTP.Address = ":0"
	cfg.HTTP.ReadTimeout = time.Second
	cfg.HTTP.WriteTimeout = time.Second

	return &testEnv{server: NewRouter(cfg, handler, authSvc), store: store}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAndLogin(t *testing.T) string {
	t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "style@example.com",
		"password": "password123",
		"nickname": "stylist",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "style@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRouter_CurrentWeather(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{current: forecast.Observation{City: "Seoul", Temperature: 21.5}})

	rec := env.do(http.MethodGet, "/api/v1/weather/current?lat=37.5&lon=127.0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var obs forecast.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obs))
	assert.Equal(t, "Seoul", obs.City)
	assert.InDelta(t, 21.5, obs.Temperature, 1e-9)
}

func TestRouter_CurrentWeather_InvalidCoords(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})

	rec := env.do(http.MethodGet, "/api/v1/weather/current?lat=abc&lon=127.0", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "invalid_request", envelope.Error.Code)
	assert.NotEmpty(t, envelope.Error.Message)
}

func TestRouter_Outfits_WithExplicitTemperature(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})

	rec := env.do(http.MethodGet, "/api/v1/outfits?temperature=2&gender=men", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Temperature     float64                 `json:"temperature"`
		Category        string                  `json:"category"`
		Recommendations []outfit.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cold", resp.Category)
	require.Len(t, resp.Recommendations, 5)
	assert.Equal(t, "men_cold_1", resp.Recommendations[0].AssetKey)
}

func TestRouter_Outfits_FallsBackToCurrentWeather(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{current: forecast.Observation{Temperature: 30}})

	rec := env.do(http.MethodGet, "/api/v1/outfits?lat=37.5&lon=127.0&gender=women&style=minimal", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Category        string                  `json:"category"`
		Recommendations []outfit.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hot", resp.Category)
	require.Len(t, resp.Recommendations, 5)
	assert.Equal(t, "women_hot_minimal_1", resp.Recommendations[0].AssetKey)
}

func TestRouter_Outfits_UnknownGender(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})

	rec := env.do(http.MethodGet, "/api/v1/outfits?temperature=20&gender=other", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LikesRequireAuth(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})

	rec := env.do(http.MethodGet, "/api/v1/likes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/likes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LikesLifecycle(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	token := env.registerAndLogin(t)

	rec := env.do(http.MethodPost, "/api/v1/likes", token, map[string]string{
		"name":     "Street daily look",
		"price":    "39,000",
		"imageUrl": "https://cdn.example.com/outfits/men_mild_1.png",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/v1/likes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Items []likes.LikedItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Items, 1)
	assert.Equal(t, "Street daily look", listResp.Items[0].Name)
	assert.False(t, listResp.Items[0].LikedAt.IsZero())

	itemPath := "/api/v1/likes/" + url.PathEscape("Street daily look")
	rec = env.do(http.MethodGet, itemPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var getResp struct {
		Liked bool            `json:"liked"`
		Item  likes.LikedItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &getResp))
	assert.True(t, getResp.Liked)
	assert.Equal(t, "39,000", getResp.Item.Price)

	rec = env.do(http.MethodDelete, itemPath, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, itemPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &getResp))
	assert.False(t, getResp.Liked)

	// Deleting again is still a success.
	rec = env.do(http.MethodDelete, itemPath, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_LikeWithoutNameFails(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	token := env.registerAndLogin(t)

	rec := env.do(http.MethodPost, "/api/v1/likes", token, map[string]string{"price": "10,000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Profile(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	token := env.registerAndLogin(t)

	rec := env.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view auth.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "style@example.com", view.Email)
	assert.Equal(t, "stylist", view.Nickname)
}

func TestRouter_DuplicateRegistrationConflicts(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	env.registerAndLogin(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "style@example.com",
		"password": "password123",
		"nickname": "stylist",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_ForecastWeather(t *testing.T) {
	report := forecast.Report{
		Hourly: []forecast.HourlyPoint{{Temperature: 12.0, ConditionCode: "01d"}},
		Daily: []forecast.DailySummary{{
			Label:               "3.10 (Tue)",
			MinTemperature:      8,
			MaxTemperature:      15,
			PrecipitationChance: 40,
		}},
	}
	env := newTestEnv(t, &stubForecastService{report: report})

	rec := env.do(http.MethodGet, "/api/v1/weather/forecast?lat=37.5&lon=127.0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got forecast.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Hourly, 1)
	require.Len(t, got.Daily, 1)
	assert.Equal(t, "3.10 (Tue)", got.Daily[0].Label)

	// Missing coordinates are rejected.
	rec = env.do(http.MethodGet, "/api/v1/weather/forecast", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RefreshFlow(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	token := env.registerAndLogin(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "style@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.Token)

	// Access tokens cannot be used as refresh tokens.
	rec = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ItemIDWithSpacesRoundTrips(t *testing.T) {
	env := newTestEnv(t, &stubForecastService{})
	token := env.registerAndLogin(t)

	rec := env.do(http.MethodPost, "/api/v1/likes", token, map[string]string{"name": "Minimal classic look"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/likes/"+url.PathEscape("Minimal classic look"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"liked":true`)
}
