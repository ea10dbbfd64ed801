package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/stylecast/internal/domain/auth"
	"github.com/yanqian/stylecast/internal/domain/forecast"
	"github.com/yanqian/stylecast/internal/domain/likes"
	"github.com/yanqian/stylecast/internal/domain/outfit"
	apperrors "github.com/yanqian/stylecast/pkg/errors"
)

// SyncFactory creates an independent liked-items session. The stream endpoint
// needs one per connection so each client owns its subscription lifecycle.
type SyncFactory func() *likes.Sync

// Handler wires the HTTP transport to domain services.
type Handler struct {
	forecastSvc forecast.Service
	outfitSvc   outfit.Service
	authSvc     auth.Service
	likesSvc    *likes.Sync
	newSession  SyncFactory
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(forecastSvc forecast.Service, outfitSvc outfit.Service, authSvc auth.Service, likesSvc *likes.Sync, newSession SyncFactory, logger *slog.Logger) *Handler {
	return &Handler{
		forecastSvc: forecastSvc,
		outfitSvc:   outfitSvc,
		authSvc:     authSvc,
		likesSvc:    likesSvc,
		newSession:  newSession,
		logger:      logger.With("component", "http.handler"),
	}
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "auth_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "email_exists"):
			status = http.StatusConflict
			code = "email_exists"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "auth_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "invalid_credentials"):
			status = http.StatusUnauthorized
			code = "invalid_credentials"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh rotates an access token using a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		code := "auth_failed"
		if apperrors.IsCode(err, "invalid_token") {
			status = http.StatusUnauthorized
			code = "invalid_token"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Profile returns the authenticated user's account view.
func (h *Handler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing credentials", nil))
		return
	}

	view, err := h.authSvc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		status := http.StatusInternalServerError
		code := "auth_failed"
		if apperrors.IsCode(err, "user_not_found") {
			status = http.StatusNotFound
			code = "user_not_found"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, view)
}

// CurrentWeather returns the current conditions for a coordinate pair or city.
func (h *Handler) CurrentWeather(c *gin.Context) {
	req := forecast.CurrentRequest{City: c.Query("city")}
	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, lon, err := parseCoords(c)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
		req.Lat, req.Lon, req.HasCoords = lat, lon, true
	}

	obs, err := h.forecastSvc.Current(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, weatherError(err))
		return
	}

	c.JSON(http.StatusOK, obs)
}

// ForecastWeather returns the hourly and daily forecast views.
func (h *Handler) ForecastWeather(c *gin.Context) {
	lat, lon, err := parseCoords(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	report, err := h.forecastSvc.Forecast(c.Request.Context(), lat, lon)
	if err != nil {
		abortWithError(c, weatherError(err))
		return
	}

	c.JSON(http.StatusOK, report)
}

// Outfits returns outfit recommendations for a temperature. When no
// temperature is given, the current conditions at the requested location are
// fetched first.
func (h *Handler) Outfits(c *gin.Context) {
	gender, err := outfit.ParseGender(c.Query("gender"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	style, err := outfit.ParseStyle(c.Query("style"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	temperature, err := h.resolveTemperature(c)
	if err != nil {
		abortWithError(c, weatherError(err))
		return
	}

	recommendations := h.outfitSvc.Recommend(c.Request.Context(), temperature, gender, style)
	c.JSON(http.StatusOK, gin.H{
		"temperature":     temperature,
		"category":        forecast.Classify(temperature),
		"recommendations": recommendations,
	})
}

func (h *Handler) resolveTemperature(c *gin.Context) (float64, error) {
	if raw := c.Query("temperature"); raw != "" {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, apperrors.Wrap("invalid_input", "temperature must be a number", err)
		}
		return temperature, nil
	}

	req := forecast.CurrentRequest{City: c.Query("city")}
	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, lon, err := parseCoords(c)
		if err != nil {
			return 0, apperrors.Wrap("invalid_input", err.Error(), err)
		}
		req.Lat, req.Lon, req.HasCoords = lat, lon, true
	}

	obs, err := h.forecastSvc.Current(c.Request.Context(), req)
	if err != nil {
		return 0, err
	}
	return obs.Temperature, nil
}

// ListLikes returns the user's liked items, newest first.
func (h *Handler) ListLikes(c *gin.Context) {
	userID, ok := likesUser(c)
	if !ok {
		return
	}

	items, err := h.likesSvc.List(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, likesError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// LikeItem saves an item to the user's liked set. Liking the same item twice
// overwrites the same document.
func (h *Handler) LikeItem(c *gin.Context) {
	userID, ok := likesUser(c)
	if !ok {
		return
	}

	var item likes.LikedItem
	if err := c.ShouldBindJSON(&item); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	if err := h.likesSvc.Like(c.Request.Context(), userID, item); err != nil {
		abortWithError(c, likesError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlikeItem removes an item from the user's liked set. Removing an absent
// item succeeds.
func (h *Handler) UnlikeItem(c *gin.Context) {
	userID, ok := likesUser(c)
	if !ok {
		return
	}

	if err := h.likesSvc.Unlike(c.Request.Context(), userID, c.Param("id")); err != nil {
		abortWithError(c, likesError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// GetLike reports whether one item is liked, including the stored document
// when it is.
func (h *Handler) GetLike(c *gin.Context) {
	userID, ok := likesUser(c)
	if !ok {
		return
	}

	item, err := h.likesSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if apperrors.IsCode(err, "document_absent") {
			c.JSON(http.StatusOK, gin.H{"liked": false})
			return
		}
		abortWithError(c, likesError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true, "item": item})
}

// StreamLikes pushes the user's liked set over Server-Sent Events. Every frame
// carries the full snapshot; the stream ends on client disconnect or a
// terminal store error.
func (h *Handler) StreamLikes(c *gin.Context) {
	userID, ok := likesUser(c)
	if !ok {
		return
	}

	session := h.newSession()
	events, err := session.Start(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, likesError(err))
		return
	}
	defer session.Stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			frame := gin.H{"items": ev.Items}
			if ev.Err != nil {
				frame = gin.H{"error": errMessage(ev.Err)}
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				h.logger.Error("marshal likes frame failed", "error", err)
				continue
			}
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			flusher.Flush()
			if ev.Err != nil {
				return
			}
		}
	}
}

func likesUser(c *gin.Context) (string, bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing credentials", nil))
		return "", false
	}
	return strconv.FormatInt(claims.UserID, 10), true
}

func likesError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, "not_authenticated"):
		return NewHTTPError(http.StatusUnauthorized, "unauthorized", errMessage(err), err)
	case apperrors.IsCode(err, "document_absent"):
		return NewHTTPError(http.StatusNotFound, "not_found", errMessage(err), err)
	case apperrors.IsCode(err, "remote_unavailable"):
		return NewHTTPError(http.StatusBadGateway, "remote_unavailable", errMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "likes_failed", errMessage(err), err)
	}
}

func weatherError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, "weather_error"):
		return NewHTTPError(http.StatusBadGateway, "weather_error", errMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "weather_failed", errMessage(err), err)
	}
}

func parseCoords(c *gin.Context) (float64, float64, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return 0, 0, apperrors.Wrap("invalid_input", "lat must be a number", err)
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return 0, 0, apperrors.Wrap("invalid_input", "lon must be a number", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, apperrors.Wrap("invalid_input", "coordinates out of range", nil)
	}
	return lat, lon, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
