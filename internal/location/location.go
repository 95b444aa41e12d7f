// Package location supplies the user's position to the pipeline.
package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"poppy/internal/geo"
	"poppy/internal/geocode"
)

// ErrInvalidCoordinate is returned for out-of-range fixes.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Provider answers "where is the user now".
type Provider interface {
	Locate(ctx context.Context) (geo.Coordinate, error)
}

// Tracker is a Provider that holds the last fix pushed by a device, starting
// from a configured default.
type Tracker struct {
	mu      sync.RWMutex
	last    geo.Coordinate
	updated time.Time
}

// NewTracker creates a Tracker seeded with def.
func NewTracker(def geo.Coordinate) *Tracker {
	return &Tracker{last: def}
}

// Update records a new fix.
func (t *Tracker) Update(c geo.Coordinate) error {
	if !c.Valid() {
		return ErrInvalidCoordinate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = c
	t.updated = time.Now()
	return nil
}

// Locate returns the last known fix.
func (t *Tracker) Locate(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, nil
}

// Updated returns when the last device fix arrived, or the zero time if the
// tracker still holds its default.
func (t *Tracker) Updated() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updated
}

// Geocoder looks up an address.
type Geocoder interface {
	Search(ctx context.Context, query string) (*geocode.Result, error)
}

// ResolveDefault geocodes address and returns its coordinate, or fallback
// when address is empty or cannot be geocoded.
func ResolveDefault(ctx context.Context, g Geocoder, address string, fallback geo.Coordinate, logger *slog.Logger) geo.Coordinate {
	if address == "" {
		return fallback
	}
	res, err := g.Search(ctx, address)
	if err != nil {
		logger.Warn("geocoding default address failed, using configured coordinate",
			"address", address, "error", err)
		return fallback
	}
	logger.Info("default location geocoded", "address", address, "match", res.DisplayName,
		"lat", res.Lat, "lon", res.Lon)
	return res.Coordinate
}
