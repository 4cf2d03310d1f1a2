package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"marginalia/internal/config"
	"marginalia/internal/logger"
	"marginalia/internal/store"
	synceng "marginalia/internal/sync"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewApp(
		WithLogger(logger.NewWithOutput(logger.ERROR, io.Discard)),
		WithStore(st),
	)
}

func TestNewAppOptions(t *testing.T) {
	cfg := &config.Config{}
	log := logger.NewWithOutput(logger.ERROR, io.Discard)

	a := NewApp(WithConfig(cfg), WithLogger(log))
	if a.Config != cfg || a.Logger != log {
		t.Error("Options not applied")
	}
	if a.Remote != nil {
		t.Error("Expected no remote service by default")
	}
}

func TestNewSyncerAppliesConfiguredLimits(t *testing.T) {
	a := newTestApp(t)
	a.Config = &config.Config{
		Sync: config.Sync{
			DefaultBookmarkLimit:    33,
			PerFolderBookmarkLimits: map[string]int{"unread": 7},
		},
	}

	syncer := a.NewSyncer()
	if syncer.DefaultBookmarkLimit != 33 {
		t.Errorf("Unexpected default limit %d", syncer.DefaultBookmarkLimit)
	}
	if syncer.PerFolderBookmarkLimits["unread"] != 7 {
		t.Errorf("Unexpected per-folder limits %v", syncer.PerFolderBookmarkLimits)
	}
}

func TestNewSyncerWithoutRemote(t *testing.T) {
	a := newTestApp(t)
	syncer := a.NewSyncer()
	if err := syncer.Sync(context.Background(), synceng.DefaultOptions()); err != synceng.ErrNoClientInformation {
		t.Errorf("Expected ErrNoClientInformation, got %v", err)
	}
}

func TestCaptureURLScrapesTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Scraped Title</title></head></html>`))
	}))
	defer server.Close()

	a := newTestApp(t)
	edit, err := a.CaptureURL(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("CaptureURL failed: %v", err)
	}
	if edit.Title != "Scraped Title" {
		t.Errorf("Expected the scraped title, got %q", edit.Title)
	}
	if edit.URL != server.URL {
		t.Errorf("Unexpected URL %q", edit.URL)
	}
}

func TestCaptureURLKeepsExplicitTitle(t *testing.T) {
	a := newTestApp(t)
	edit, err := a.CaptureURL(context.Background(), "https://example.com/a", "My Title")
	if err != nil {
		t.Fatalf("CaptureURL failed: %v", err)
	}
	if edit.Title != "My Title" {
		t.Errorf("Expected the explicit title kept, got %q", edit.Title)
	}
}
