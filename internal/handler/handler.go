package handler

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"time"

	"poppy/internal/board"
	"poppy/internal/geo"
	"poppy/internal/templates"
)

// Refresher runs pipeline cycles on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*board.Board, error)
	Trigger(ctx context.Context)
}

// LocationSink accepts device location fixes.
type LocationSink interface {
	Update(c geo.Coordinate) error
}

// Metadata reads feed metadata recorded at import time.
type Metadata interface {
	GetMetadata(ctx context.Context, key string) (string, error)
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	publisher *board.Publisher
	refresher Refresher
	locations LocationSink
	meta      Metadata
	logger    *slog.Logger
	version   string        // content hash of static assets, for cache busting
	sseTick   time.Duration // re-send interval keeping relative times fresh
	now       func() time.Time
}

// New creates a Handler. static is hashed to version asset URLs.
func New(pub *board.Publisher, refresher Refresher, locations LocationSink, meta Metadata, static fs.FS, logger *slog.Logger) *Handler {
	v := computeAssetVersion(static)
	logger.Info("asset version computed", "version", v)

	return &Handler{
		publisher: pub,
		refresher: refresher,
		locations: locations,
		meta:      meta,
		logger:    logger,
		version:   v,
		sseTick:   60 * time.Second,
		now:       time.Now,
	}
}

// computeAssetVersion hashes all CSS and JS files in fsys to produce a short
// version string. Changes to any file produce a new version.
func computeAssetVersion(fsys fs.FS) string {
	h := md5.New()
	var paths []string
	fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext == ".css" || ext == ".js" {
			paths = append(paths, p)
		}
		return nil
	})
	sort.Strings(paths) // deterministic order
	for _, p := range paths {
		f, err := fsys.Open(p)
		if err != nil {
			continue
		}
		io.Copy(h, f)
		f.Close()
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:8]
}

// page creates a templates.Page with the asset version pre-filled.
func (h *Handler) page(title string) templates.Page {
	return templates.Page{
		Title:        title,
		AssetVersion: h.version,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}
