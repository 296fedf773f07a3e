package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"stock_watch/internal/domain"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string; the quote endpoints reject bare clients
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultTickers          = "MSFT,AAPL"
	DefaultIntervalSeconds  = 60
	DefaultAlertPercent     = 2.0
	DefaultStateFile        = "last_prices.json"
	DefaultStateBackend     = "json"
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisKey         = "stock_watch:last_prices"
	DefaultPriceSource      = "chart"
	DefaultYahooBaseURL     = "https://query1.finance.yahoo.com"
	DefaultFetchTimeoutSec  = 10
	DefaultFetchConcurrency = 4
	DefaultHTTPAddr         = ":8000"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultLogDir           = "logs"
)

// Tickers is a normalized symbol list. It decodes from a comma-separated string
// (environment or YAML scalar) or from a YAML sequence.
type Tickers []string

// Decode implements envconfig.Decoder.
func (t *Tickers) Decode(value string) error {
	*t = domain.ParseTickers(value)
	return nil
}

// UnmarshalYAML accepts either "MSFT,AAPL" or [MSFT, AAPL].
func (t *Tickers) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = domain.ParseTickers(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = domain.NormalizeTickers(list)
		return nil
	default:
		return fmt.Errorf("tickers: expected string or list, got yaml kind %d", node.Kind)
	}
}

// Config holds every watcher option.
// Defaults come first, then an optional YAML file, then the environment (highest precedence).
type Config struct {
	Tickers         Tickers `yaml:"tickers" envconfig:"TICKERS"`
	IntervalSeconds int     `yaml:"interval_seconds" envconfig:"INTERVAL_SECONDS"`
	AlertPercent    float64 `yaml:"percent_change_alert" envconfig:"PERCENT_CHANGE_ALERT"`

	StateFile    string `yaml:"state_file" envconfig:"STATE_FILE"`
	StateBackend string `yaml:"state_backend" envconfig:"STATE_BACKEND"` // json, sqlite, redis
	RedisAddr    string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisKey     string `yaml:"redis_key" envconfig:"REDIS_KEY"`

	PriceSource      string `yaml:"price_source" envconfig:"PRICE_SOURCE"` // chart, quote
	YahooBaseURL     string `yaml:"yahoo_base_url" envconfig:"YAHOO_BASE_URL"`
	FetchTimeoutSec  int    `yaml:"fetch_timeout_seconds" envconfig:"FETCH_TIMEOUT_SECONDS"`
	FetchConcurrency int    `yaml:"fetch_concurrency" envconfig:"FETCH_CONCURRENCY"`

	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"` // empty disables the read API

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`
	LogDir    string `yaml:"log_dir" envconfig:"LOG_DIR"` // empty disables the rotating file sink
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Tickers:          domain.ParseTickers(DefaultTickers),
		IntervalSeconds:  DefaultIntervalSeconds,
		AlertPercent:     DefaultAlertPercent,
		StateFile:        DefaultStateFile,
		StateBackend:     DefaultStateBackend,
		RedisAddr:        DefaultRedisAddr,
		RedisKey:         DefaultRedisKey,
		PriceSource:      DefaultPriceSource,
		YahooBaseURL:     DefaultYahooBaseURL,
		FetchTimeoutSec:  DefaultFetchTimeoutSec,
		FetchConcurrency: DefaultFetchConcurrency,
		HTTPAddr:         DefaultHTTPAddr,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		LogDir:           DefaultLogDir,
	}
}

// LoadConfig builds the configuration.
// path names an optional YAML file; when empty, CONFIG_FILE is consulted.
// A .env file in the working directory is loaded into the environment if present.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional; production usually has none.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.ConfigError{Field: "CONFIG_FILE", Err: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &domain.ConfigError{Field: "CONFIG_FILE", Err: err}
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		field := "environment"
		var perr *envconfig.ParseError
		if errors.As(err, &perr) {
			field = perr.KeyName
		}
		return nil, &domain.ConfigError{Field: field, Err: err}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Tickers = domain.NormalizeTickers(c.Tickers)
	c.StateBackend = strings.ToLower(strings.TrimSpace(c.StateBackend))
	c.PriceSource = strings.ToLower(strings.TrimSpace(c.PriceSource))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.YahooBaseURL = strings.TrimRight(c.YahooBaseURL, "/")
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return &domain.ConfigError{Field: "TICKERS", Err: errors.New("at least one ticker is required")}
	}
	if c.IntervalSeconds <= 0 {
		return &domain.ConfigError{Field: "INTERVAL_SECONDS", Err: fmt.Errorf("must be positive, got %d", c.IntervalSeconds)}
	}
	if !domain.IsValidPrice(c.AlertPercent) || c.AlertPercent <= 0 {
		return &domain.ConfigError{Field: "PERCENT_CHANGE_ALERT", Err: fmt.Errorf("must be a positive finite number, got %v", c.AlertPercent)}
	}

	switch c.StateBackend {
	case "json", "sqlite":
		if c.StateFile == "" {
			return &domain.ConfigError{Field: "STATE_FILE", Err: errors.New("required for file backends")}
		}
	case "redis":
		if c.RedisAddr == "" || c.RedisKey == "" {
			return &domain.ConfigError{Field: "REDIS_ADDR", Err: errors.New("redis address and key are required")}
		}
	default:
		return &domain.ConfigError{Field: "STATE_BACKEND", Err: fmt.Errorf("%w: %q", domain.ErrUnknownBackend, c.StateBackend)}
	}

	switch c.PriceSource {
	case "chart":
		if !strings.HasPrefix(c.YahooBaseURL, "http://") && !strings.HasPrefix(c.YahooBaseURL, "https://") {
			return &domain.ConfigError{Field: "YAHOO_BASE_URL", Err: fmt.Errorf("invalid URL: %s", c.YahooBaseURL)}
		}
	case "quote":
	default:
		return &domain.ConfigError{Field: "PRICE_SOURCE", Err: fmt.Errorf("%w: %q", domain.ErrUnknownBackend, c.PriceSource)}
	}

	if c.FetchTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "FETCH_TIMEOUT_SECONDS", Err: fmt.Errorf("must be positive, got %d", c.FetchTimeoutSec)}
	}
	if c.FetchConcurrency < 1 {
		return &domain.ConfigError{Field: "FETCH_CONCURRENCY", Err: fmt.Errorf("must be >= 1, got %d", c.FetchConcurrency)}
	}

	return nil
}

// Interval returns the pause between poll cycles.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// FetchTimeout returns the per-request upstream timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// StateLocation describes where the baseline lives, for the startup banner.
func (c *Config) StateLocation() string {
	if c.StateBackend == "redis" {
		return "redis://" + c.RedisAddr + "/" + c.RedisKey
	}
	return c.StateFile
}
