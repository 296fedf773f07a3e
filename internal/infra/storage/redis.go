package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"stock_watch/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the baseline in a single hash: field = symbol, value = price.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisStore connects lazily to addr; an unreachable server is reported on first use.
func NewRedisStore(addr, key string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
		logger: logger,
	}
}

// Load reads the hash. An unreachable server or an unparsable field yields an empty state.
func (s *RedisStore) Load(ctx context.Context) domain.PriceState {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		s.logger.Warn("State hash unreadable, starting cold", slog.String("key", s.key), slog.Any("error", err))
		return domain.NewPriceState()
	}

	state := make(domain.PriceState, len(fields))
	for sym, raw := range fields {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.logger.Warn("State hash corrupt, starting cold",
				slog.String("key", s.key), slog.String("symbol", sym), slog.Any("error", err))
			return domain.NewPriceState()
		}
		state[sym] = price
	}
	return state.Normalized()
}

// Save replaces the hash in one MULTI/EXEC block.
func (s *RedisStore) Save(ctx context.Context, state domain.PriceState) error {
	values := make(map[string]any, len(state))
	for sym, price := range state {
		values[sym] = strconv.FormatFloat(price, 'f', -1, 64)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
