package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stock_watch/internal/domain"
	"stock_watch/internal/infra"
	"stock_watch/internal/infra/storage"
)

func testConfig(t *testing.T, baseURL string) *infra.Config {
	cfg := infra.DefaultConfig()
	cfg.Tickers = infra.Tickers{"AAPL"}
	cfg.IntervalSeconds = 1
	cfg.StateFile = filepath.Join(t.TempDir(), "last_prices.json")
	cfg.YahooBaseURL = baseURL
	cfg.HTTPAddr = ""
	cfg.LogDir = ""
	cfg.LogLevel = "error"
	return cfg
}

func TestBootstrap_RunPersistsState(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"indicators":{"quote":[{"close":[150.004]}]}}],"error":null}}`))
	}))
	defer upstream.Close()

	cfg := testConfig(t, upstream.URL)
	b := NewBootstrap()
	if err := b.InitializeWith(cfg); err != nil {
		t.Fatalf("InitializeWith failed: %v", err)
	}
	if b.Server != nil {
		t.Error("Expected no API server when HTTP_ADDR is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for b.Metrics.Snapshot().CyclesTotal == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected at least one completed cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}

	got := storage.NewFileStore(cfg.StateFile, nil).Load(context.Background())
	if got["AAPL"] != 150 {
		t.Errorf("Expected persisted AAPL=150, got %v", got)
	}
}

func TestBootstrap_UnknownPriceSource(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.PriceSource = "bloomberg"

	err := NewBootstrap().InitializeWith(cfg)
	if !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestBootstrap_WithServer(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.PriceSource = "quote"

	b := NewBootstrap()
	if err := b.InitializeWith(cfg); err != nil {
		t.Fatalf("InitializeWith failed: %v", err)
	}
	defer b.Close()

	if b.Server == nil {
		t.Error("Expected API server to be configured")
	}
	if b.APIAddr() == "" {
		t.Error("Expected the API listener to be bound")
	}
}

func TestBootstrap_BusyPortFailsStartup(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.HTTPAddr = held.Addr().String()

	b := NewBootstrap()
	err = b.InitializeWith(cfg)
	if err == nil {
		b.Close()
		t.Fatal("Expected startup error for a port already in use")
	}
	if !strings.Contains(err.Error(), "read API") {
		t.Errorf("Expected read API error, got %v", err)
	}
}

func TestBootstrap_RunServesAPIAlongsideWatcher(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"indicators":{"quote":[{"close":[150]}]}}],"error":null}}`))
	}))
	defer upstream.Close()

	cfg := testConfig(t, upstream.URL)
	cfg.HTTPAddr = "127.0.0.1:0"

	b := NewBootstrap()
	if err := b.InitializeWith(cfg); err != nil {
		t.Fatalf("InitializeWith failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	resp, err := http.Get("http://" + b.APIAddr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	deadline := time.After(3 * time.Second)
	for b.Metrics.Snapshot().CyclesTotal == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected the watcher to complete a cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}
