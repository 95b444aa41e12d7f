package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"poppy/internal/geo"
	"poppy/internal/location"
)

// Board returns the current board as JSON, or 503 before the first publish.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	b := h.publisher.Current()
	if b == nil {
		w.Header().Set("Retry-After", "5")
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no board published yet"})
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

// Refresh runs one cycle synchronously and returns the resulting board.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	b, err := h.refresher.Refresh(r.Context())
	if err != nil {
		h.logger.Error("manual refresh failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "refresh failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// UpdateLocation records a device fix and starts a refresh in the background.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Lat == nil || req.Lon == nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lon are required"})
		return
	}

	c := geo.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
	if err := h.locations.Update(c); err != nil {
		if errors.Is(err, location.ErrInvalidCoordinate) {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("updating location", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not update location"})
		return
	}
	h.logger.Info("location updated", "lat", c.Lat, "lon", c.Lon)

	// The refresh outlives this request.
	h.refresher.Trigger(context.WithoutCancel(r.Context()))
	h.writeJSON(w, http.StatusAccepted, c)
}
