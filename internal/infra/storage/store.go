package storage

import (
	"fmt"
	"log/slog"

	"stock_watch/internal/domain"
	"stock_watch/internal/infra"
)

// Open builds the state store selected by cfg.StateBackend.
func Open(cfg *infra.Config, logger *slog.Logger) (domain.StateStore, error) {
	switch cfg.StateBackend {
	case "", "json":
		return NewFileStore(cfg.StateFile, logger), nil
	case "sqlite":
		return NewSQLiteStore(cfg.StateFile, logger)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisKey, logger), nil
	default:
		return nil, fmt.Errorf("%w: state backend %q", domain.ErrUnknownBackend, cfg.StateBackend)
	}
}
