package storage

import "fmt"

// migrate creates the GTFS schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Info("database migrations applied")
	return nil
}

var migrations = []string{
	// Agency
	`CREATE TABLE IF NOT EXISTS agency (
		agency_id       TEXT PRIMARY KEY,
		agency_name     TEXT NOT NULL,
		agency_url      TEXT NOT NULL DEFAULT '',
		agency_timezone TEXT NOT NULL DEFAULT ''
	)`,

	// Routes
	`CREATE TABLE IF NOT EXISTS routes (
		route_id         TEXT PRIMARY KEY,
		agency_id        TEXT,
		route_short_name TEXT,
		route_long_name  TEXT,
		route_type       INTEGER NOT NULL DEFAULT 3,
		route_color      TEXT
	)`,

	// Stops. location_type 1 rows are parent stations, 0 rows are platforms.
	`CREATE TABLE IF NOT EXISTS stops (
		stop_id        TEXT PRIMARY KEY,
		stop_code      TEXT,
		stop_name      TEXT NOT NULL,
		stop_lat       REAL NOT NULL,
		stop_lon       REAL NOT NULL,
		location_type  INTEGER DEFAULT 0,
		parent_station TEXT
	)`,

	// Calendar. Dates are stored as YYYYMMDD integers.
	`CREATE TABLE IF NOT EXISTS calendar (
		service_id TEXT PRIMARY KEY,
		monday     INTEGER NOT NULL DEFAULT 0,
		tuesday    INTEGER NOT NULL DEFAULT 0,
		wednesday  INTEGER NOT NULL DEFAULT 0,
		thursday   INTEGER NOT NULL DEFAULT 0,
		friday     INTEGER NOT NULL DEFAULT 0,
		saturday   INTEGER NOT NULL DEFAULT 0,
		sunday     INTEGER NOT NULL DEFAULT 0,
		start_date INTEGER NOT NULL,
		end_date   INTEGER NOT NULL
	)`,

	// Calendar Dates (exceptions): 1 = service added, 2 = service removed
	`CREATE TABLE IF NOT EXISTS calendar_dates (
		service_id     TEXT NOT NULL,
		date           INTEGER NOT NULL,
		exception_type INTEGER NOT NULL,
		PRIMARY KEY (service_id, date)
	)`,

	// Trips
	`CREATE TABLE IF NOT EXISTS trips (
		trip_id       TEXT PRIMARY KEY,
		route_id      TEXT NOT NULL,
		service_id    TEXT NOT NULL,
		trip_headsign TEXT,
		direction_id  INTEGER
	)`,

	// Stop Times. departure_timestamp is seconds since the service day origin.
	`CREATE TABLE IF NOT EXISTS stop_times (
		trip_id             TEXT NOT NULL,
		arrival_time        TEXT NOT NULL,
		departure_time      TEXT NOT NULL,
		departure_timestamp INTEGER NOT NULL,
		stop_id             TEXT NOT NULL,
		stop_sequence       INTEGER NOT NULL,
		PRIMARY KEY (trip_id, stop_sequence)
	)`,

	// Feed metadata (imported_at, source, etc.)
	`CREATE TABLE IF NOT EXISTS feed_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	// Indexes for common query patterns
	`CREATE INDEX IF NOT EXISTS idx_stops_location_type ON stops(location_type)`,
	`CREATE INDEX IF NOT EXISTS idx_stops_parent ON stops(parent_station)`,
	`CREATE INDEX IF NOT EXISTS idx_stop_times_departure ON stop_times(stop_id, departure_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_service ON trips(service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_dates_date ON calendar_dates(date)`,
}
