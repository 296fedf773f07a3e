package domain

import (
	"errors"
	"net/http"
	"strconv"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a failure talking to the upstream price provider.
type NetworkError struct {
	Op        string // Operation that failed (e.g., "chart", "quote list")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// StatusError is a non-2xx reply from the price provider.
// 429 and 5xx are retriable; 404 matches ErrSymbolNotFound.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "unexpected status code: " + strconv.Itoa(e.StatusCode)
}

func (e *StatusError) IsRetriable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Is lets errors.Is(err, ErrSymbolNotFound) recognise a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrSymbolNotFound && e.StatusCode == http.StatusNotFound
}

// ConfigError represents a configuration error (never retriable).
// Field is the environment variable or option that was rejected.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoPrices is returned when a fetch resolved none of the requested symbols.
	ErrNoPrices = errors.New("no prices fetched")

	// ErrSymbolNotFound means the provider does not know the symbol. The symbol is unresolved, not failed.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidSymbol is returned when a symbol is empty after normalization. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrUnknownBackend is returned for an unsupported state backend or price source name.
	ErrUnknownBackend = errors.New("unknown backend")
)
