package gtfs

import (
	"archive/zip"
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// ErrBadTime is returned for stop times that are not H:MM:SS.
var ErrBadTime = errors.New("invalid GTFS time")

func init() {
	// Tolerate ragged rows and stray quotes; published feeds have both.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})
}

// ParseZip extracts and parses the in-memory GTFS tables from a zip archive.
// stop_times.txt is NOT loaded here; it is streamed during import.
func ParseZip(path string, logger *slog.Logger) (*Feed, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	feed := &Feed{}
	files := map[string]any{
		"agency.txt":         &feed.Agencies,
		"routes.txt":         &feed.Routes,
		"stops.txt":          &feed.Stops,
		"trips.txt":          &feed.Trips,
		"calendar.txt":       &feed.Calendar,
		"calendar_dates.txt": &feed.CalendarDates,
	}

	for _, f := range r.File {
		dest, ok := files[f.Name]
		if !ok {
			continue
		}
		if err := parseCSVFile(f, dest); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
		}
	}

	logger.Info("GTFS feed parsed",
		"agencies", len(feed.Agencies),
		"routes", len(feed.Routes),
		"stops", len(feed.Stops),
		"trips", len(feed.Trips),
		"calendar", len(feed.Calendar),
		"calendar_dates", len(feed.CalendarDates),
	)

	return feed, nil
}

// parseCSVFile decodes a single CSV file from the zip into dest, a pointer
// to a slice.
func parseCSVFile(f *zip.File, dest any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	if err := gocsv.Unmarshal(skipBOM(rc), dest); err != nil {
		// An empty file has no header and no rows.
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return err
	}
	return nil
}

// streamCSVFile decodes a CSV file row by row, calling fn for each record.
func streamCSVFile[T any](f *zip.File, fn func(T) error) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	return gocsv.UnmarshalToCallbackWithError(skipBOM(rc), fn)
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		br.Discard(3)
	}
	return br
}

// ParseTime converts a GTFS H:MM:SS time into seconds since the service
// day origin. Hours may exceed 23 for trips running past midnight.
func ParseTime(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	var secs int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 || (i > 0 && n > 59) {
			return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
		}
		secs = secs*60 + n
	}
	return secs, nil
}
