package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock_watch/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore keeps the baseline in a last_prices table.
type SQLiteStore struct {
	db     *gorm.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
// A file that is not a SQLite database is moved aside and replaced with a fresh one.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := openDB(path)
	if err != nil && isNotADatabase(err) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		log.Warn("State database corrupt, moving aside",
			slog.String("path", path), slog.String("moved_to", aside), slog.Any("error", err))
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, fmt.Errorf("failed to move corrupt database: %w", renameErr)
		}
		db, err = openDB(path)
	}
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, path: path, logger: log}, nil
}

func openDB(path string) (*gorm.DB, error) {
	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.LastPrice{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func isNotADatabase(err error) bool {
	return strings.Contains(err.Error(), "not a database")
}

// Load reads every row. A query failure yields an empty state.
func (s *SQLiteStore) Load(ctx context.Context) domain.PriceState {
	var rows []domain.LastPrice
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		s.logger.Warn("State query failed, starting cold", slog.String("path", s.path), slog.Any("error", err))
		return domain.NewPriceState()
	}

	state := make(domain.PriceState, len(rows))
	for _, row := range rows {
		state[row.Symbol] = row.Price
	}
	return state.Normalized()
}

// Save replaces the table contents with state in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, state domain.PriceState) error {
	now := time.Now().UTC()
	symbols := state.Symbols()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(symbols) > 0 {
			del = del.Where("symbol NOT IN ?", symbols)
		}
		if err := del.Delete(&domain.LastPrice{}).Error; err != nil {
			return err
		}

		for _, sym := range symbols {
			row := domain.LastPrice{Symbol: sym, Price: state[sym], UpdatedAt: now}
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
