// Package realtime fetches GTFS-realtime trip updates and overlays them on
// scheduled departures.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// ErrFeedStatus is returned when the feed responds with a non-200 status.
var ErrFeedStatus = errors.New("unexpected feed status")

// Fetcher downloads a GTFS-realtime trip update feed.
type Fetcher struct {
	feedURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewFetcher creates a GTFS-RT feed fetcher. A zero timeout leaves the
// request bounded only by the caller's context.
func NewFetcher(feedURL string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		feedURL: feedURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch performs one GET of the feed URL and decodes the body.
func (f *Fetcher) Fetch(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrFeedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parse feed protobuf: %w", err)
	}

	f.logger.Debug("GTFS-RT feed fetched",
		"entities", len(feed.GetEntity()),
		"feed_timestamp", feed.GetHeader().GetTimestamp())
	return feed, nil
}
