package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v2"

	"poppy/internal/board"
	"poppy/internal/config"
	"poppy/internal/geo"
	"poppy/internal/geocode"
	"poppy/internal/gtfs"
	"poppy/internal/handler"
	"poppy/internal/location"
	"poppy/internal/pipeline"
	"poppy/internal/realtime"
	"poppy/internal/schedule"
	"poppy/internal/server"
	"poppy/internal/storage"
	"poppy/web"
)

const userAgent = "poppy/1.0 (departure board)"

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Refresh the board periodically and serve it over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "feed-url", Usage: "GTFS-realtime trip updates URL"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := prepare(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.IsSet("feed-url") {
				cfg.FeedURL = c.String("feed-url")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// First run downloads the schedule if the database is empty.
			if cfg.GTFSSource != "" {
				if err := ensureData(ctx, cfg, logger); err != nil {
					logger.Error("failed to ensure GTFS data", "error", err)
				}
			}

			a, err := build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			static, err := fs.Sub(web.StaticFiles, "static")
			if err != nil {
				return err
			}
			h := handler.New(a.publisher, a.pipeline, a.tracker, a.db, static, logger)
			srv := server.New(cfg, h, static, logger)

			var wg conc.WaitGroup
			wg.Go(func() { a.pipeline.Run(ctx, cfg.RefreshInterval) })
			err = srv.ListenAndServe(ctx)
			stop()
			wg.Wait()
			a.pipeline.Wait()
			return err
		},
	}
}

func onceCommand() *cli.Command {
	return &cli.Command{
		Name:  "once",
		Usage: "Run one refresh cycle and print the board as JSON",
		Action: func(c *cli.Context) error {
			cfg, logger, err := prepare(c)
			if err != nil {
				return err
			}
			a, err := build(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			b, err := a.pipeline.Refresh(c.Context)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Download and import a GTFS zip into the database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "gtfs", Usage: "GTFS zip path or URL (defaults to gtfs_source)"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := prepare(c)
			if err != nil {
				return err
			}
			source := cfg.GTFSSource
			if c.IsSet("gtfs") {
				source = c.String("gtfs")
			}
			if source == "" {
				return fmt.Errorf("no GTFS source: pass --gtfs or set gtfs_source")
			}

			db, err := storage.Open(cfg.DBPath, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("importing GTFS data", "source", source)
			if err := gtfs.NewLoader(db, cfg.GTFSDir, logger).Load(c.Context, source); err != nil {
				return fmt.Errorf("GTFS import failed: %w", err)
			}
			logger.Info("GTFS import complete")
			return nil
		},
	}
}

// prepare loads and validates config and builds the logger.
func prepare(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func ensureData(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return gtfs.NewLoader(db, cfg.GTFSDir, logger).EnsureData(ctx, cfg.GTFSSource)
}

// app is the wired set of components shared by serve and once.
type app struct {
	db        *storage.DB
	routes    *board.CachedLookup
	publisher *board.Publisher
	tracker   *location.Tracker
	pipeline  *pipeline.Pipeline
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := storage.OpenReadOnly(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	if !db.HasData(ctx) {
		db.Close()
		return nil, fmt.Errorf("no GTFS data in %s: run `poppy import` first", cfg.DBPath)
	}

	loc, err := serviceLocation(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("service time zone", "tz", loc.String())
	resolver := schedule.NewResolver(db, loc, logger)

	var feed pipeline.FeedSource
	if cfg.FeedURL != "" {
		feed = realtime.NewFetcher(cfg.FeedURL, cfg.FetchTimeout, logger)
	} else {
		logger.Warn("no realtime feed configured, using the schedule only")
	}

	geocoder := geocode.New(cfg.GeocoderURL, userAgent, logger)
	def := location.ResolveDefault(ctx, geocoder, cfg.Address,
		geo.Coordinate{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon}, logger)
	tracker := location.NewTracker(def)

	routes := board.NewCachedLookup(db, cfg.RouteCacheTTL)
	pub := board.NewPublisher()
	p := pipeline.New(feed, tracker, resolver, routes, pub, logger, pipeline.Options{
		MaxDepartures:  cfg.MaxDepartures,
		HorizonMinutes: cfg.HorizonMinutes,
	})

	return &app{db: db, routes: routes, publisher: pub, tracker: tracker, pipeline: p}, nil
}

func (a *app) close() {
	a.routes.Close()
	a.db.Close()
}

// serviceLocation returns the configured time zone, falling back to the
// feed's agency time zone and then to the local zone.
func serviceLocation(ctx context.Context, cfg *config.Config, db *storage.DB) (*time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	if loc != nil {
		return loc, nil
	}
	tz, err := db.AgencyTimezone(ctx)
	if err != nil || tz == "" {
		return time.Local, nil
	}
	loc, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("agency timezone %q: %w", tz, err)
	}
	return loc, nil
}
