// internal/core/domain/quotes/types.go
package quotes

import (
	"encoding/json"
	"fmt"
	"time"
)

// Asset - инструмент, по которому раздаются котировки
type Asset struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Rate - одна запись из ответа внешнего источника, уже сопоставленная с инструментом
type Rate struct {
	AssetID int
	Value   float64
}

// Quote - одно наблюдение цены инструмента
type Quote struct {
	AssetID int       `db:"asset_id"`
	Date    time.Time `db:"date"`
	Value   float64   `db:"value"`
}

// BusMessage - формат сообщения, публикуемого в канал шины
type BusMessage struct {
	AssetID   int     `json:"asset_id"`
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// HistoryPoint - одна точка истории котировок из хранилища
type HistoryPoint struct {
	Time  int64   `db:"time"`
	Value float64 `db:"value"`
}

// ChannelKey возвращает имя канала шины для инструмента
func ChannelKey(assetID int) string {
	return fmt.Sprintf("quote: %d", assetID)
}

// NewBatch собирает батч котировок с единой временной меткой наблюдения
func NewBatch(rates []Rate, observedAt time.Time) []Quote {
	observedAt = observedAt.UTC().Truncate(time.Second)

	batch := make([]Quote, 0, len(rates))
	for _, r := range rates {
		batch = append(batch, Quote{
			AssetID: r.AssetID,
			Date:    observedAt,
			Value:   r.Value,
		})
	}
	return batch
}

// Marshal сериализует котировку в формат сообщения шины
func (q Quote) Marshal() ([]byte, error) {
	return json.Marshal(BusMessage{
		AssetID:   q.AssetID,
		Timestamp: q.Date.Unix(),
		Value:     q.Value,
	})
}
