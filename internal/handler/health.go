package handler

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status         string     `json:"status"`
	Board          bool       `json:"board"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
	GTFSImportedAt string     `json:"gtfs_imported_at,omitempty"`
}

// Healthz reports liveness plus whether a board has been published.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if b := h.publisher.Current(); b != nil {
		resp.Board = true
		resp.LastUpdated = &b.LastUpdated
	}
	if v, err := h.meta.GetMetadata(r.Context(), "imported_at"); err == nil {
		resp.GTFSImportedAt = v
	}
	h.writeJSON(w, http.StatusOK, resp)
}
