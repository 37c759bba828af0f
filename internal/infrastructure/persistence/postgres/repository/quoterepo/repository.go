// internal/infrastructure/persistence/postgres/repository/quoterepo/repository.go
package quoterepo

import (
	"context"
	"fmt"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"

	"github.com/jmoiron/sqlx"
)

// Repository - репозиторий инструментов и котировок
type Repository struct {
	db *sqlx.DB
}

// NewRepository создает новый репозиторий
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListAssets возвращает отображение id -> символ всех инструментов
func (r *Repository) ListAssets(ctx context.Context) (map[int]string, error) {
	var rows []quotes.Asset
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM assets ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	assets := make(map[int]string, len(rows))
	for _, row := range rows {
		assets[row.ID] = row.Name
	}
	return assets, nil
}

// AppendQuotes записывает батч котировок одной операцией
func (r *Repository) AppendQuotes(ctx context.Context, batch []quotes.Quote) error {
	if len(batch) == 0 {
		return nil
	}

	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO quotes (asset_id, date, value)
		VALUES (:asset_id, :date, :value)`, batch); err != nil {
		return fmt.Errorf("failed to insert quotes: %w", err)
	}
	return nil
}

// QuotesForPeriod возвращает историю котировок инструмента за окно window,
// отсортированную по времени по возрастанию
func (r *Repository) QuotesForPeriod(ctx context.Context, assetID int, window time.Duration) ([]quotes.HistoryPoint, error) {
	var points []quotes.HistoryPoint
	if err := r.db.SelectContext(ctx, &points, `
		SELECT EXTRACT(EPOCH FROM date)::bigint AS time, value
		FROM quotes
		WHERE asset_id = $1 AND date >= NOW() - $2 * INTERVAL '1 second'
		ORDER BY date`, assetID, int64(window.Seconds())); err != nil {
		return nil, fmt.Errorf("failed to query quotes for asset %d: %w", assetID, err)
	}
	return points, nil
}
