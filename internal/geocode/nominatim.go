// Package geocode resolves addresses to coordinates with Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"poppy/internal/geo"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrNoResults is returned when a search matches nothing.
var ErrNoResults = errors.New("no geocoding results")

// Result holds a geocoding result.
type Result struct {
	geo.Coordinate
	DisplayName string
}

// Client is a Nominatim geocoding client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	backOff    func() backoff.BackOff
}

// New creates a Nominatim geocoding client. An empty baseURL selects the
// public instance. userAgent is required by Nominatim's usage policy.
func New(baseURL, userAgent string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		userAgent:  userAgent,
		logger:     logger,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return backoff.WithMaxRetries(b, 3)
		},
	}
}

// Search geocodes a free-form query and returns the top result.
// Server errors and transport failures are retried; client errors are not.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	u := c.baseURL + "/search?" + url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {"1"},
		"addressdetails": {"0"},
	}.Encode()

	return backoff.RetryNotifyWithData(
		func() (*Result, error) { return c.search(ctx, u) },
		backoff.WithContext(c.backOff(), ctx),
		func(err error, d time.Duration) {
			c.logger.Warn("geocode failed, retrying", "query", query, "backoff", d, "error", err)
		},
	)
}

func (c *Client) search(ctx context.Context, u string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("nominatim status %d", resp.StatusCode))
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("nominatim decode: %w", err))
	}
	if len(results) == 0 {
		return nil, backoff.Permanent(ErrNoResults)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse lat: %w", err))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse lon: %w", err))
	}

	return &Result{
		Coordinate:  geo.Coordinate{Lat: lat, Lon: lon},
		DisplayName: results[0].DisplayName,
	}, nil
}
