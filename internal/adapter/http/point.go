package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/series"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// SeriesSource returns the most recent forecast series.
type SeriesSource interface {
	Latest() (*series.Series, error)
}

// PointConfig holds the query settings.
type PointConfig struct {
	Grid          domain.Grid
	PrecipMax     float64
	FrameInterval time.Duration
	DemoKey       string
}

// PointResponse is the body of a successful point query.
type PointResponse struct {
	Longitude        float64   `json:"longitude"`
	Latitude         float64   `json:"latitude"`
	StartTimestamp   float64   `json:"start_timestamp"`
	ForecastInterval string    `json:"forecast_interval"`
	ForecastSteps    int       `json:"forecast_steps"`
	Precipitation    []float64 `json:"precipitation"`
	Unit             string    `json:"unit"`
}

// PointHandler answers GET /api/v1/precipitation/point with the forecast
// precipitation series at one coordinate.
type PointHandler struct {
	src    SeriesSource
	cfg    PointConfig
	logger *slog.Logger
}

// NewPointHandler creates the handler.
func NewPointHandler(src SeriesSource, cfg PointConfig, logger *slog.Logger) *PointHandler {
	return &PointHandler{src: src, cfg: cfg, logger: logger}
}

func (h *PointHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.DemoKey)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	lng, errLng := strconv.ParseFloat(q.Get("longitude"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("latitude"), 64)
	if errLng != nil || errLat != nil || !domain.ValidLngLat(lng, lat) {
		writeError(w, http.StatusBadRequest, "Invalid longitude or latitude value.")
		return
	}

	cell, err := h.cfg.Grid.Cell(lng, lat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.src.Latest()
	if err != nil {
		if errors.Is(err, series.ErrNoSeries) {
			writeError(w, http.StatusServiceUnavailable, "No forecast available yet.")
			return
		}
		h.logger.Error("load forecast series failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	values, err := s.Point(cell, h.cfg.PrecipMax)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("precipitation point query",
		"longitude", lng,
		"latitude", lat,
		"start", s.Start.Format(time.RFC3339),
	)
	writeJSON(w, http.StatusOK, PointResponse{
		Longitude:        lng,
		Latitude:         lat,
		StartTimestamp:   float64(s.Start.Unix()),
		ForecastInterval: formatInterval(h.cfg.FrameInterval),
		ForecastSteps:    len(values),
		Precipitation:    values,
		Unit:             "mm/h",
	})
}

// formatInterval renders whole minutes as "10m" and anything else as a Go duration.
func formatInterval(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
	return d.String()
}
