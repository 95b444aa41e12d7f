// Package storagetest builds throwaway schedule databases for tests.
package storagetest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"poppy/internal/storage"
)

// BART is a one-station fixture: 16th St Mission with a single platform,
// two weekday trips on the Richmond to Millbrae route, and a station with
// two platforms at 24th St Mission. Service runs every weekday of 2025.
var BART = []string{
	`INSERT INTO agency VALUES ('BART', 'Bay Area Rapid Transit', 'https://www.bart.gov', 'America/Los_Angeles')`,
	`INSERT INTO routes VALUES ('RD-S', 'BART', 'RED-S', 'Richmond to Millbrae', 1, 'ff0000')`,
	`INSERT INTO stops VALUES ('16TH', '', '16th St Mission', 37.765062, -122.419694, 1, NULL)`,
	`INSERT INTO stops VALUES ('16TH_1', '', '16th St Mission Platform 1', 37.765062, -122.419694, 0, '16TH')`,
	`INSERT INTO stops VALUES ('24TH', '', '24th St Mission', 37.752254, -122.418466, 1, NULL)`,
	`INSERT INTO stops VALUES ('24TH_1', '', '24th St Mission Platform 1', 37.752254, -122.418466, 0, '24TH')`,
	`INSERT INTO stops VALUES ('24TH_2', '', '24th St Mission Platform 2', 37.752254, -122.418466, 0, '24TH')`,
	`INSERT INTO calendar VALUES ('WKDY', 1, 1, 1, 1, 1, 0, 0, 20250101, 20251231)`,
	`INSERT INTO trips VALUES ('T1', 'RD-S', 'WKDY', 'Millbrae', 0)`,
	`INSERT INTO trips VALUES ('T2', 'RD-S', 'WKDY', 'Millbrae', 0)`,
	`INSERT INTO stop_times VALUES ('T1', '10:00:00', '10:00:00', 36000, '16TH_1', 1)`,
	`INSERT INTO stop_times VALUES ('T2', '10:05:00', '10:05:00', 36300, '16TH_1', 1)`,
}

// NewDB creates a migrated database in t.TempDir, runs stmts against it and
// returns the database path. The writer is closed before returning.
func NewDB(t testing.TB, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gtfs.db")
	db, err := storage.Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed %q: %v", s, err)
		}
	}
	return path
}

// OpenReadOnly opens the database at path read-only and closes it when the
// test ends.
func OpenReadOnly(t testing.TB, path string) *storage.DB {
	t.Helper()
	db, err := storage.OpenReadOnly(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open read-only test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
