package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"stock_watch/internal/domain"
)

// FileStore keeps the baseline as a JSON object of symbol -> price.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a JSON file store at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing or unparsable file yields an empty state.
func (s *FileStore) Load(ctx context.Context) domain.PriceState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("No state file, starting cold", slog.String("path", s.path))
		} else {
			s.logger.Warn("State file unreadable, starting cold", slog.String("path", s.path), slog.Any("error", err))
		}
		return domain.NewPriceState()
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("State file corrupt, starting cold", slog.String("path", s.path), slog.Any("error", err))
		return domain.NewPriceState()
	}

	return domain.PriceState(raw).Normalized()
}

// Save replaces the state file atomically: write a sibling temp file, fsync, rename.
// A crash mid-write leaves either the old file or the new one, never a partial one.
func (s *FileStore) Save(ctx context.Context, state domain.PriceState) error {
	if state == nil {
		state = domain.NewPriceState()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
