package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"poppy/internal/config"
	"poppy/internal/storage/storagetest"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
		wantJSON      bool
	}{
		{"info", "text", false, false},
		{"debug", "json", false, true},
		{"WARN", "", false, false},
		{"loud", "text", true, false},
		{"info", "xml", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newLogger: %v", err)
			}
			logger.Error("hello", "k", "v")
			if got := strings.HasPrefix(buf.String(), "{"); got != tt.wantJSON {
				t.Errorf("output %q, want JSON = %v", buf.String(), tt.wantJSON)
			}
		})
	}
}

func TestServiceLocation(t *testing.T) {
	db := storagetest.OpenReadOnly(t, storagetest.NewDB(t, storagetest.BART...))

	cfg := &config.Config{}
	loc, err := serviceLocation(context.Background(), cfg, db)
	if err != nil || loc.String() != "America/Los_Angeles" {
		t.Errorf("agency fallback = %v, %v", loc, err)
	}

	cfg.Timezone = "America/New_York"
	loc, err = serviceLocation(context.Background(), cfg, db)
	if err != nil || loc.String() != "America/New_York" {
		t.Errorf("configured zone = %v, %v", loc, err)
	}
}

func TestBuild(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.FeedURL = ""
	cfg.DBPath = storagetest.NewDB(t, storagetest.BART...)

	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	got, _ := a.tracker.Locate(context.Background())
	if got.Lat != config.DefaultLat || got.Lon != config.DefaultLon {
		t.Errorf("tracker default = %+v", got)
	}

	cfg.DBPath = storagetest.NewDB(t)
	if _, err := build(context.Background(), cfg, logger); err == nil {
		t.Error("expected error for an empty database")
	}
}
