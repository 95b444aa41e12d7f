package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Downloader fetches GTFS zip files over HTTP, retrying transient failures.
type Downloader struct {
	client  *http.Client
	dir     string // Directory to store downloaded files
	logger  *slog.Logger
	backOff func() backoff.BackOff
}

// NewDownloader creates a Downloader that writes into dir.
func NewDownloader(dir string, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 5 * time.Minute},
		dir:    dir,
		logger: logger,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
}

// Download is the result of a successful download.
type Download struct {
	Path         string
	LastModified string
	ETag         string
}

// Download fetches url and saves it to a temp file in the downloader's
// directory. The caller removes the file.
func (d *Downloader) Download(ctx context.Context, url string) (*Download, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	d.logger.Info("downloading GTFS feed", "url", url)
	return backoff.RetryNotifyWithData(
		func() (*Download, error) { return d.download(ctx, url) },
		backoff.WithContext(d.backOff(), ctx),
		func(err error, wait time.Duration) {
			d.logger.Warn("GTFS download failed, retrying", "backoff", wait, "error", err)
		},
	)
}

func (d *Downloader) download(ctx context.Context, url string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	tmpFile, err := os.CreateTemp(d.dir, "gtfs-*.zip")
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	defer tmpFile.Close()

	written, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("write file: %w", err)
	}

	d.logger.Info("GTFS feed downloaded",
		"path", filepath.Base(tmpFile.Name()),
		"size_mb", fmt.Sprintf("%.1f", float64(written)/(1024*1024)),
	)
	return &Download{
		Path:         tmpFile.Name(),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}, nil
}
