package infra

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"stock_watch/internal/domain"
)

// clearEnv blanks out variables a developer shell might export.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "TICKERS", "INTERVAL_SECONDS", "PERCENT_CHANGE_ALERT", "STATE_FILE",
		"STATE_BACKEND", "REDIS_ADDR", "REDIS_KEY", "PRICE_SOURCE", "YAHOO_BASE_URL",
		"FETCH_TIMEOUT_SECONDS", "FETCH_CONCURRENCY", "HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "LOG_DIR",
	} {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !reflect.DeepEqual([]string(cfg.Tickers), []string{"MSFT", "AAPL"}) {
		t.Errorf("Expected default tickers [MSFT AAPL], got %v", cfg.Tickers)
	}
	if cfg.Interval() != 60*time.Second {
		t.Errorf("Expected 60s interval, got %v", cfg.Interval())
	}
	if cfg.AlertPercent != 2.0 {
		t.Errorf("Expected 2.0 threshold, got %v", cfg.AlertPercent)
	}
	if cfg.StateFile != "last_prices.json" {
		t.Errorf("Expected last_prices.json, got %s", cfg.StateFile)
	}
	if cfg.StateBackend != "json" || cfg.PriceSource != "chart" {
		t.Errorf("Unexpected backends: %s / %s", cfg.StateBackend, cfg.PriceSource)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKERS", " goog, ,tsla ,GOOG")
	t.Setenv("INTERVAL_SECONDS", "15")
	t.Setenv("PERCENT_CHANGE_ALERT", "0.5")
	t.Setenv("STATE_FILE", "/tmp/prices.json")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !reflect.DeepEqual([]string(cfg.Tickers), []string{"GOOG", "TSLA"}) {
		t.Errorf("Expected [GOOG TSLA], got %v", cfg.Tickers)
	}
	if cfg.IntervalSeconds != 15 {
		t.Errorf("Expected 15, got %d", cfg.IntervalSeconds)
	}
	if cfg.AlertPercent != 0.5 {
		t.Errorf("Expected 0.5, got %v", cfg.AlertPercent)
	}
	if cfg.StateFile != "/tmp/prices.json" {
		t.Errorf("Expected /tmp/prices.json, got %s", cfg.StateFile)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("Expected empty HTTP_ADDR to disable the API, got %q", cfg.HTTPAddr)
	}
}

func TestLoadConfig_MalformedNumbersAreFatal(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"INTERVAL_SECONDS", "sixty"},
		{"PERCENT_CHANGE_ALERT", "2%"},
		{"PERCENT_CHANGE_ALERT", "NaN"},
		{"PERCENT_CHANGE_ALERT", "Inf"},
		{"PERCENT_CHANGE_ALERT", "-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig("")
			if err == nil {
				t.Fatal("Expected configuration error")
			}

			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != tt.key {
				t.Errorf("Expected field %s, got %s", tt.key, cfgErr.Field)
			}
		})
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "watch.yaml")
	content := []byte(`
tickers: [nvda, " amd "]
interval_seconds: 30
percent_change_alert: 1.5
state_backend: SQLite
state_file: prices.db
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("file values apply", func(t *testing.T) {
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if !reflect.DeepEqual([]string(cfg.Tickers), []string{"NVDA", "AMD"}) {
			t.Errorf("Expected [NVDA AMD], got %v", cfg.Tickers)
		}
		if cfg.IntervalSeconds != 30 || cfg.AlertPercent != 1.5 {
			t.Errorf("Unexpected interval/threshold: %d / %v", cfg.IntervalSeconds, cfg.AlertPercent)
		}
		if cfg.StateBackend != "sqlite" {
			t.Errorf("Expected sqlite, got %s", cfg.StateBackend)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("INTERVAL_SECONDS", "5")
		t.Setenv("TICKERS", "ibm")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.IntervalSeconds != 5 {
			t.Errorf("Expected env interval 5, got %d", cfg.IntervalSeconds)
		}
		if !reflect.DeepEqual([]string(cfg.Tickers), []string{"IBM"}) {
			t.Errorf("Expected [IBM], got %v", cfg.Tickers)
		}
	})

	t.Run("comma string in yaml", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "comma.yaml")
		os.WriteFile(p, []byte("tickers: \"msft, aapl\"\n"), 0644)

		cfg, err := LoadConfig(p)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if !reflect.DeepEqual([]string(cfg.Tickers), []string{"MSFT", "AAPL"}) {
			t.Errorf("Expected [MSFT AAPL], got %v", cfg.Tickers)
		}
	})

	t.Run("missing file is a config error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		var cfgErr *domain.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "CONFIG_FILE" {
			t.Errorf("Expected CONFIG_FILE error, got %v", err)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no tickers", func(c *Config) { c.Tickers = nil }, "TICKERS"},
		{"zero interval", func(c *Config) { c.IntervalSeconds = 0 }, "INTERVAL_SECONDS"},
		{"negative threshold", func(c *Config) { c.AlertPercent = -1 }, "PERCENT_CHANGE_ALERT"},
		{"unknown backend", func(c *Config) { c.StateBackend = "etcd" }, "STATE_BACKEND"},
		{"unknown source", func(c *Config) { c.PriceSource = "bloomberg" }, "PRICE_SOURCE"},
		{"bad url", func(c *Config) { c.YahooBaseURL = "ftp://x" }, "YAHOO_BASE_URL"},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }, "FETCH_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Defaults should be valid, got %v", err)
	}
}

func TestConfig_StateLocation(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.StateLocation() != "last_prices.json" {
		t.Errorf("Expected last_prices.json, got %s", cfg.StateLocation())
	}

	cfg.StateBackend = "redis"
	if cfg.StateLocation() != "redis://localhost:6379/stock_watch:last_prices" {
		t.Errorf("Unexpected redis location: %s", cfg.StateLocation())
	}
}
