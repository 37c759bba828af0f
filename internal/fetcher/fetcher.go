// internal/fetcher/fetcher.go
package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/internal/core/registry"
	"forex-quotes-streamer/pkg/logger"
)

// FeedSource - узкий интерфейс внешнего источника котировок
type FeedSource interface {
	FetchRates(ctx context.Context, symbols map[string]int) ([]quotes.Rate, error)
}

// Fetcher - цикл опроса внешнего источника котировок
type Fetcher struct {
	feed    FeedSource
	sink    *DualSink
	symbols map[string]int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewFetcher создает новый Fetcher
func NewFetcher(feed FeedSource, sink *DualSink, reg *registry.Registry) *Fetcher {
	return &Fetcher{
		feed:     feed,
		sink:     sink,
		symbols:  reg.Symbols(),
		stopChan: make(chan struct{}),
	}
}

// Start запускает цикл опроса с заданным интервалом между началами циклов.
// Тикер отбрасывает пропущенные тики, поэтому циклы никогда не накладываются:
// медленный запрос сдвигает следующий цикл не более чем на один интервал.
func (f *Fetcher) Start(interval time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return fmt.Errorf("fetcher already running")
	}

	f.running = true
	f.wg.Add(1)

	go func() {
		defer f.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Первоначальный запрос
		f.runCycle(context.Background())

		for {
			select {
			case <-ticker.C:
				f.runCycle(context.Background())
			case <-f.stopChan:
				return
			}
		}
	}()

	logger.Info("✅ Fetcher запущен, интервал опроса: %v", interval)
	return nil
}

// Stop останавливает цикл опроса и дожидается завершения текущего цикла
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}

	close(f.stopChan)
	f.wg.Wait()
	f.running = false

	logger.Info("🛑 Fetcher остановлен")
}

// runCycle выполняет один цикл опроса: запрос фида, простановка единой
// временной метки наблюдения и передача батча в DualSink. Любая ошибка
// превращает цикл в no-op.
func (f *Fetcher) runCycle(ctx context.Context) {
	rates, err := f.feed.FetchRates(ctx, f.symbols)
	if err != nil {
		logger.Warn("⚠️ Ошибка получения котировок: %v", err)
		return
	}

	if len(rates) == 0 {
		return
	}

	// Все котировки одного цикла получают одну метку времени
	batch := quotes.NewBatch(rates, time.Now())
	logger.Debug("Получено котировок: %d", len(batch))

	f.sink.Write(ctx, batch)
}
