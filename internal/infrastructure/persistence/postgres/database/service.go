// internal/infrastructure/persistence/postgres/database/service.go
package database

import (
	"context"
	"fmt"
	"time"

	"forex-quotes-streamer/internal/config"
	"forex-quotes-streamer/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Service - сервис для работы с PostgreSQL
type Service struct {
	config config.DatabaseConfig
	db     *sqlx.DB
}

// NewService создает новый сервис базы данных
func NewService(cfg config.DatabaseConfig) *Service {
	return &Service{config: cfg}
}

// Connect подключается к базе данных с ограниченным числом повторных попыток.
// Используется при старте процесса: база может подниматься дольше, чем сервис.
func (s *Service) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.config.Host,
		s.config.Port,
		s.config.User,
		s.config.Password,
		s.config.Name,
		s.config.SSLMode,
	)

	logger.Info("📡 Connecting to PostgreSQL: %s:%d/%s",
		s.config.Host, s.config.Port, s.config.Name)

	var lastErr error
	for attempt := 1; attempt <= s.config.ConnectAttempts; attempt++ {
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			lastErr = err
		} else {
			db.SetMaxOpenConns(s.config.MaxOpenConns)
			db.SetMaxIdleConns(s.config.MaxIdleConns)
			db.SetConnMaxLifetime(s.config.MaxConnLifetime)

			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = db.PingContext(pingCtx)
			cancel()

			if err == nil {
				s.db = db
				logger.Info("✅ Connected to PostgreSQL on attempt %d", attempt)
				return nil
			}

			db.Close()
			lastErr = err
		}

		logger.Warn("⚠️ PostgreSQL not ready yet (attempt %d/%d): %v",
			attempt, s.config.ConnectAttempts, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.ConnectDelay):
		}
	}

	return fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w",
		s.config.ConnectAttempts, lastErr)
}

// DB возвращает подключение к базе данных
func (s *Service) DB() *sqlx.DB {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	logger.Info("🛑 Closing PostgreSQL connection")
	return s.db.Close()
}

// InitSchema создает таблицы и заполняет справочник инструментов по умолчанию
func (s *Service) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id   SMALLINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`); err != nil {
		return fmt.Errorf("failed to create assets table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			asset_id SMALLINT         NOT NULL,
			date     TIMESTAMPTZ      NOT NULL,
			value    DOUBLE PRECISION NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create quotes table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_quotes_asset_date
		ON quotes (asset_id, date)`); err != nil {
		return fmt.Errorf("failed to create quotes index: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM assets`); err != nil {
		return fmt.Errorf("failed to count assets: %w", err)
	}

	if count == 0 {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO assets (id, name) VALUES
				(1, 'EURUSD'),
				(2, 'USDJPY'),
				(3, 'GBPUSD'),
				(4, 'AUDUSD'),
				(5, 'USDCAD')`); err != nil {
			return fmt.Errorf("failed to seed assets: %w", err)
		}
		logger.Info("✅ Seeded default assets")
	}

	return nil
}
