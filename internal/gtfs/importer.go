package gtfs

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"poppy/internal/storage"
)

// Importer loads parsed GTFS data into SQLite.
type Importer struct {
	db     *storage.DB
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(db *storage.DB, logger *slog.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

// Import loads a parsed GTFS feed plus stop_times streamed from the zip file.
// The entire operation runs in a single transaction; readers see either the
// old schedule or the new one.
func (imp *Importer) Import(ctx context.Context, feed *Feed, zipPath string, source string) error {
	start := time.Now()

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear existing data
	if err := imp.clearTables(ctx, tx); err != nil {
		return err
	}

	if err := imp.importAgencies(ctx, tx, feed.Agencies); err != nil {
		return err
	}
	if err := imp.importRoutes(ctx, tx, feed.Routes); err != nil {
		return err
	}
	if err := imp.importStops(ctx, tx, feed.Stops); err != nil {
		return err
	}
	if err := imp.importCalendar(ctx, tx, feed.Calendar); err != nil {
		return err
	}
	if err := imp.importCalendarDates(ctx, tx, feed.CalendarDates); err != nil {
		return err
	}
	if err := imp.importTrips(ctx, tx, feed.Trips); err != nil {
		return err
	}
	if err := imp.streamStopTimes(ctx, tx, zipPath); err != nil {
		return err
	}

	meta := map[string]string{
		"imported_at":   time.Now().UTC().Format(time.RFC3339),
		"source":        source,
		"last_modified": feed.LastModified,
		"etag":          feed.ETag,
	}
	for k, v := range meta {
		if v == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO feed_metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	imp.logger.Info("GTFS import complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"routes", len(feed.Routes),
		"stops", len(feed.Stops),
		"trips", len(feed.Trips),
	)
	return nil
}

func (imp *Importer) clearTables(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"stop_times", "trips", "calendar_dates", "calendar",
		"stops", "routes", "agency", "feed_metadata",
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

func (imp *Importer) importAgencies(ctx context.Context, tx *sql.Tx, agencies []Agency) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO agency (agency_id, agency_name, agency_url, agency_timezone) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare agency: %w", err)
	}
	defer stmt.Close()

	for _, a := range agencies {
		if _, err := stmt.ExecContext(ctx, a.AgencyID, a.AgencyName, a.AgencyURL, a.AgencyTimezone); err != nil {
			return fmt.Errorf("insert agency %s: %w", a.AgencyID, err)
		}
	}
	imp.logger.Info("imported agencies", "count", len(agencies))
	return nil
}

func (imp *Importer) importRoutes(ctx context.Context, tx *sql.Tx, routes []Route) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name,
		 route_type, route_color)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare routes: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		if _, err := stmt.ExecContext(ctx, r.RouteID, r.AgencyID, r.RouteShortName,
			r.RouteLongName, atoi(r.RouteType, 3), r.RouteColor); err != nil {
			return fmt.Errorf("insert route %s: %w", r.RouteID, err)
		}
	}
	imp.logger.Info("imported routes", "count", len(routes))
	return nil
}

func (imp *Importer) importStops(ctx context.Context, tx *sql.Tx, stops []Stop) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stops (stop_id, stop_code, stop_name, stop_lat, stop_lon,
		 location_type, parent_station)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stops: %w", err)
	}
	defer stmt.Close()

	for _, s := range stops {
		lat, err := strconv.ParseFloat(strings.TrimSpace(s.StopLat), 64)
		if err != nil {
			return fmt.Errorf("stop %s lat %q: %w", s.StopID, s.StopLat, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(s.StopLon), 64)
		if err != nil {
			return fmt.Errorf("stop %s lon %q: %w", s.StopID, s.StopLon, err)
		}
		var parent any
		if s.ParentStation != "" {
			parent = s.ParentStation
		}
		if _, err := stmt.ExecContext(ctx, s.StopID, s.StopCode, s.StopName,
			lat, lon, atoi(s.LocationType, 0), parent); err != nil {
			return fmt.Errorf("insert stop %s: %w", s.StopID, err)
		}
	}
	imp.logger.Info("imported stops", "count", len(stops))
	return nil
}

func (imp *Importer) importCalendar(ctx context.Context, tx *sql.Tx, entries []CalendarEntry) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO calendar (service_id, monday, tuesday, wednesday, thursday,
		 friday, saturday, sunday, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare calendar: %w", err)
	}
	defer stmt.Close()

	for _, c := range entries {
		if _, err := stmt.ExecContext(ctx, c.ServiceID,
			atoi(c.Monday, 0), atoi(c.Tuesday, 0), atoi(c.Wednesday, 0), atoi(c.Thursday, 0),
			atoi(c.Friday, 0), atoi(c.Saturday, 0), atoi(c.Sunday, 0),
			atoi(c.StartDate, 0), atoi(c.EndDate, 0)); err != nil {
			return fmt.Errorf("insert calendar %s: %w", c.ServiceID, err)
		}
	}
	imp.logger.Info("imported calendar entries", "count", len(entries))
	return nil
}

func (imp *Importer) importCalendarDates(ctx context.Context, tx *sql.Tx, dates []CalendarDate) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO calendar_dates (service_id, date, exception_type) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare calendar_dates: %w", err)
	}
	defer stmt.Close()

	for _, d := range dates {
		if _, err := stmt.ExecContext(ctx, d.ServiceID, atoi(d.Date, 0), atoi(d.ExceptionType, 0)); err != nil {
			return fmt.Errorf("insert calendar_date %s/%s: %w", d.ServiceID, d.Date, err)
		}
	}
	imp.logger.Info("imported calendar dates", "count", len(dates))
	return nil
}

func (imp *Importer) importTrips(ctx context.Context, tx *sql.Tx, trips []Trip) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trips: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		if _, err := stmt.ExecContext(ctx, t.TripID, t.RouteID, t.ServiceID,
			t.TripHeadsign, atoi(t.DirectionID, 0)); err != nil {
			return fmt.Errorf("insert trip %s: %w", t.TripID, err)
		}
	}
	imp.logger.Info("imported trips", "count", len(trips))
	return nil
}

// streamStopTimes reads stop_times.txt directly from the zip, computing
// departure_timestamp from the departure (or arrival) time. Rows without
// any time are untimed intermediate stops and are skipped.
func (imp *Importer) streamStopTimes(ctx context.Context, tx *sql.Tx, zipPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip for stop_times: %w", err)
	}
	defer r.Close()

	var stopTimesFile *zip.File
	for _, f := range r.File {
		if f.Name == "stop_times.txt" {
			stopTimesFile = f
			break
		}
	}
	if stopTimesFile == nil {
		return errors.New("stop_times.txt not found in zip")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stop_times (trip_id, arrival_time, departure_time, departure_timestamp,
		 stop_id, stop_sequence)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stop_times: %w", err)
	}
	defer stmt.Close()

	count, skipped := 0, 0
	err = streamCSVFile(stopTimesFile, func(st StopTime) error {
		dep := st.DepartureTime
		if strings.TrimSpace(dep) == "" {
			dep = st.ArrivalTime
		}
		if strings.TrimSpace(dep) == "" {
			skipped++
			return nil
		}
		secs, err := ParseTime(dep)
		if err != nil {
			return fmt.Errorf("stop_time row %d: %w", count, err)
		}
		arr := st.ArrivalTime
		if arr == "" {
			arr = dep
		}

		if _, err := stmt.ExecContext(ctx, st.TripID, arr, dep, secs,
			st.StopID, atoi(st.StopSequence, 0)); err != nil {
			return fmt.Errorf("insert stop_time row %d: %w", count, err)
		}
		count++

		if count%500000 == 0 {
			imp.logger.Info("importing stop_times", "rows", count)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("stream stop_times: %w", err)
	}

	imp.logger.Info("imported stop_times", "count", count, "untimed_skipped", skipped)
	return nil
}

// atoi parses an optional integer column, returning def when it is blank
// or malformed.
func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
