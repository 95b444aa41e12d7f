package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"poppy/internal/storage"
)

// Loader runs the download, parse and import steps for a GTFS source.
type Loader struct {
	downloader *Downloader
	importer   *Importer
	db         *storage.DB
	logger     *slog.Logger
}

// NewLoader creates a Loader writing into db. Downloads are staged in dir.
func NewLoader(db *storage.DB, dir string, logger *slog.Logger) *Loader {
	return &Loader{
		downloader: NewDownloader(dir, logger),
		importer:   NewImporter(db, logger),
		db:         db,
		logger:     logger,
	}
}

// Load imports source, which is either an http(s) URL or a local zip path.
func (l *Loader) Load(ctx context.Context, source string) error {
	zipPath := source
	var lastModified, etag string

	if isURL(source) {
		dl, err := l.downloader.Download(ctx, source)
		if err != nil {
			return fmt.Errorf("download %s: %w", source, err)
		}
		defer os.Remove(dl.Path)
		zipPath, lastModified, etag = dl.Path, dl.LastModified, dl.ETag
	}

	feed, err := ParseZip(zipPath, l.logger)
	if err != nil {
		return err
	}
	feed.LastModified = lastModified
	feed.ETag = etag

	return l.importer.Import(ctx, feed, zipPath, source)
}

// EnsureData imports source if the database has no schedule yet.
func (l *Loader) EnsureData(ctx context.Context, source string) error {
	if l.db.HasData(ctx) {
		l.logger.Info("GTFS data already present")
		return nil
	}
	if source == "" {
		return fmt.Errorf("database is empty and no GTFS source is configured")
	}
	l.logger.Info("no GTFS data found, performing initial import", "source", source)
	return l.Load(ctx, source)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
