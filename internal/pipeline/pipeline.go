// Package pipeline runs the departure board refresh cycle: fetch the
// realtime feed and the user's location, resolve the nearest stop and its
// schedule, overlay predictions and publish the reduced board.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"poppy/internal/board"
	"poppy/internal/geo"
	"poppy/internal/location"
	"poppy/internal/realtime"
	"poppy/internal/schedule"
)

// ErrPanic wraps a panic recovered during a run.
var ErrPanic = errors.New("refresh panicked")

// FeedSource fetches the realtime feed.
type FeedSource interface {
	Fetch(ctx context.Context) (*gtfs.FeedMessage, error)
}

// Options tunes the board reduction and the clock.
type Options struct {
	MaxDepartures  int
	HorizonMinutes int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline owns the refresh cycle. Runs may overlap; the publisher keeps the
// board with the latest resolution time.
type Pipeline struct {
	feed      FeedSource
	location  location.Provider
	resolver  *schedule.Resolver
	routes    board.RouteLookup
	publisher *board.Publisher
	logger    *slog.Logger
	opts      Options

	phase    atomic.Int32
	inflight conc.WaitGroup
}

// New creates a Pipeline. feed may be nil, in which case every run uses the
// schedule alone.
func New(feed FeedSource, loc location.Provider, resolver *schedule.Resolver, routes board.RouteLookup,
	publisher *board.Publisher, logger *slog.Logger, opts Options) *Pipeline {
	if opts.MaxDepartures <= 0 {
		opts.MaxDepartures = board.DefaultCount
	}
	if opts.HorizonMinutes <= 0 {
		opts.HorizonMinutes = board.DefaultHorizon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		feed:      feed,
		location:  loc,
		resolver:  resolver,
		routes:    routes,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Phase returns the phase most recently entered by any run.
func (p *Pipeline) Phase() Phase {
	return Phase(p.phase.Load())
}

func (p *Pipeline) enter(logger *slog.Logger, ph Phase) {
	p.phase.Store(int32(ph))
	logger.Debug("pipeline phase", "phase", ph)
}

// Refresh runs one cycle and returns the board it built. On error the
// previously published board is left in place.
func (p *Pipeline) Refresh(ctx context.Context) (b *board.Board, err error) {
	logger := p.logger.With("run", uuid.NewString())
	start := time.Now()
	defer p.enter(logger, Idle)

	p.enter(logger, Fetching)
	feed, coord, err := p.fetch(ctx, logger)
	if err != nil {
		logger.Error("refresh failed", "phase", Fetching, "error", err)
		return nil, err
	}

	phase := Resolving
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w during %s: %v", ErrPanic, phase, r)
			logger.Error("refresh failed", "phase", phase, "error", err)
		}
	}()

	p.enter(logger, Resolving)
	now := p.opts.Now()
	stop, err := p.resolver.NearestStop(ctx, coord)
	if err != nil {
		logger.Error("refresh failed", "phase", phase, "error", err)
		return nil, fmt.Errorf("nearest stop: %w", err)
	}
	services := p.resolver.ActiveServiceIDs(ctx, now)
	scheduled, err := p.resolver.ScheduledDepartures(ctx, stop, services, now)
	if err != nil {
		logger.Error("refresh failed", "phase", phase, "stop", stop.ID, "error", err)
		return nil, fmt.Errorf("scheduled departures: %w", err)
	}

	phase = Merging
	p.enter(logger, phase)
	merged := scheduled
	if feed != nil {
		merged = realtime.ApplyRealtime(stop.PlatformIDs, feed, scheduled, now)
	}

	phase = Publishing
	p.enter(logger, phase)
	routes := board.RouteDepartures(ctx, p.routes, merged, logger)
	b = &board.Board{
		Stop:        stop,
		Departures:  board.NextDepartures(routes, now, p.opts.MaxDepartures, p.opts.HorizonMinutes),
		LastUpdated: now,
	}
	if !p.publisher.Publish(b) {
		logger.Info("board superseded by a newer run", "last_updated", now)
	}

	logger.Info("board refreshed",
		"stop", stop.ID,
		"services", len(services),
		"scheduled", len(scheduled),
		"realtime", feed != nil,
		"routes", len(b.Departures),
		"duration", time.Since(start))
	return b, nil
}

// fetch runs the feed download and the location request concurrently.
// A failed feed degrades to no feed; a failed location fails the run.
func (p *Pipeline) fetch(ctx context.Context, logger *slog.Logger) (*gtfs.FeedMessage, geo.Coordinate, error) {
	var (
		feed   *gtfs.FeedMessage
		coord  geo.Coordinate
		locErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		if p.feed == nil {
			return
		}
		f, err := p.feed.Fetch(ctx)
		if err != nil {
			logger.Warn("realtime feed unavailable, using schedule only", "error", err)
			return
		}
		feed = f
	})
	wg.Go(func() {
		coord, locErr = p.location.Locate(ctx)
	})
	if r := wg.WaitAndRecover(); r != nil {
		return nil, geo.Coordinate{}, fmt.Errorf("%w during %s: %w", ErrPanic, Fetching, r.AsError())
	}
	if locErr != nil {
		return nil, geo.Coordinate{}, fmt.Errorf("locate: %w", locErr)
	}
	return feed, coord, nil
}

// Trigger starts a refresh in the background. Wait blocks until every
// triggered refresh has finished.
func (p *Pipeline) Trigger(ctx context.Context) {
	p.inflight.Go(func() {
		p.Refresh(ctx)
	})
}

// Wait blocks until triggered refreshes complete.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	p.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Refresh(ctx)
		case <-ctx.Done():
			p.logger.Info("refresh loop stopped")
			return
		}
	}
}
