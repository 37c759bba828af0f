// internal/fetcher/sink.go
package fetcher

import (
	"context"
	"sync"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/pkg/logger"
)

// QuoteStore - узкий интерфейс долговременного хранилища котировок
type QuoteStore interface {
	AppendQuotes(ctx context.Context, batch []quotes.Quote) error
}

// Bus - узкий интерфейс шины для публикации котировок
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// DualSink записывает батч котировок в два независимых назначения:
// хранилище и шину. Ошибка одного назначения не мешает другому.
type DualSink struct {
	store QuoteStore
	bus   Bus
}

// NewDualSink создает новый DualSink
func NewDualSink(store QuoteStore, bus Bus) *DualSink {
	return &DualSink{store: store, bus: bus}
}

// Write выполняет обе записи параллельно и дожидается завершения обеих.
// Ошибки логируются и не возвращаются: следующий цикл опроса принесет
// свежие данные, потеря одной точки допустима.
func (s *DualSink) Write(ctx context.Context, batch []quotes.Quote) {
	if len(batch) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := s.store.AppendQuotes(ctx, batch); err != nil {
			logger.Error("❌ Не удалось сохранить котировки: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		for _, q := range batch {
			payload, err := q.Marshal()
			if err != nil {
				logger.Error("❌ Не удалось сериализовать котировку %d: %v", q.AssetID, err)
				continue
			}
			if err := s.bus.Publish(ctx, quotes.ChannelKey(q.AssetID), payload); err != nil {
				logger.Error("❌ Не удалось опубликовать котировку %d: %v", q.AssetID, err)
			}
		}
	}()

	wg.Wait()
}
