package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetMetadata retrieves a value from the feed_metadata table.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM feed_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMetadata stores a key-value pair in the feed_metadata table.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO feed_metadata (key, value) VALUES (?, ?)`,
		key, value)
	return err
}

// StationRow is a parent station (location_type = 1).
type StationRow struct {
	StopID  string
	Name    string
	StopLat float64
	StopLon float64
}

// ParentStations returns every parent station in table order.
func (db *DB) ParentStations(ctx context.Context) ([]StationRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT stop_id, stop_name, stop_lat, stop_lon
		FROM stops
		WHERE location_type = 1`)
	if err != nil {
		return nil, fmt.Errorf("parent stations query: %w", err)
	}
	defer rows.Close()

	var stations []StationRow
	for rows.Next() {
		var s StationRow
		if err := rows.Scan(&s.StopID, &s.Name, &s.StopLat, &s.StopLon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// PlatformIDs returns the stop IDs of the platforms (location_type = 0)
// belonging to a parent station.
func (db *DB) PlatformIDs(ctx context.Context, stationID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT stop_id
		FROM stops
		WHERE location_type = 0 AND parent_station = ?
		ORDER BY stop_id`, stationID)
	if err != nil {
		return nil, fmt.Errorf("platforms query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveServiceIDs returns the service IDs running on the given date.
// date is a YYYYMMDD integer and weekday selects the calendar column.
func (db *DB) ActiveServiceIDs(ctx context.Context, weekday time.Weekday, date int) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT service_id FROM calendar
		WHERE %s = 1 AND start_date <= ? AND end_date >= ?
		  AND service_id NOT IN (
		    SELECT service_id FROM calendar_dates
		    WHERE date = ? AND exception_type = 2
		  )
		UNION
		SELECT service_id FROM calendar_dates
		WHERE date = ? AND exception_type = 1
		ORDER BY service_id`, dayColumn(weekday)),
		date, date,
		date,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("active services query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DepartureRow is a scheduled departure at a stop.
type DepartureRow struct {
	TripID string
	// DepartureTimestamp is seconds since the service day origin.
	DepartureTimestamp int64
}

// DeparturesAtStop returns departures from stopID on trips of the given
// services whose departure_timestamp is at least from.
func (db *DB) DeparturesAtStop(ctx context.Context, stopID string, serviceIDs []string, from int64) ([]DepartureRow, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(serviceIDs)), ",")
	args := make([]any, 0, len(serviceIDs)+2)
	args = append(args, stopID, from)
	for _, id := range serviceIDs {
		args = append(args, id)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT st.trip_id, st.departure_timestamp
		FROM stop_times st
		JOIN trips t ON t.trip_id = st.trip_id
		WHERE st.stop_id = ?
		  AND st.departure_timestamp >= ?
		  AND t.service_id IN (%s)
		ORDER BY st.departure_timestamp`, placeholders),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("departures query: %w", err)
	}
	defer rows.Close()

	var deps []DepartureRow
	for rows.Next() {
		var d DepartureRow
		if err := rows.Scan(&d.TripID, &d.DepartureTimestamp); err != nil {
			return nil, fmt.Errorf("scan departure: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// RouteNameForTrip returns the route long name for a trip, falling back to
// the short name when the long name is empty. Returns ErrNotFound when the
// trip or its route is missing.
func (db *DB) RouteNameForTrip(ctx context.Context, tripID string) (string, error) {
	var name sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(NULLIF(r.route_long_name, ''), r.route_short_name)
		FROM trips t
		JOIN routes r ON r.route_id = t.route_id
		WHERE t.trip_id = ?`, tripID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("route for trip %s: %w", tripID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("route for trip %s: %w", tripID, err)
	}
	return name.String, nil
}

// AgencyTimezone returns the timezone of the first agency, or "" if none is set.
func (db *DB) AgencyTimezone(ctx context.Context) (string, error) {
	var tz string
	err := db.QueryRowContext(ctx,
		`SELECT agency_timezone FROM agency ORDER BY agency_id LIMIT 1`).Scan(&tz)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("agency timezone: %w", err)
	}
	return tz, nil
}

// HasData returns true if the database has GTFS data imported.
func (db *DB) HasData(ctx context.Context) bool {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stops`).Scan(&count)
	return err == nil && count > 0
}

// dayColumn returns the SQLite column name for a given weekday.
func dayColumn(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	case time.Sunday:
		return "sunday"
	default:
		return "monday"
	}
}
