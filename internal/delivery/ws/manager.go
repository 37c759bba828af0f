// internal/delivery/ws/manager.go
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/internal/core/registry"
	"forex-quotes-streamer/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrAssetNotFound - подписка на неизвестный инструмент
	ErrAssetNotFound = errors.New("asset not found")
	// ErrConnectionNotFound - операция над неизвестным или закрытым подключением
	ErrConnectionNotFound = errors.New("connection not found")
)

// Transport - узкий интерфейс отправки сообщений клиенту
type Transport interface {
	Send(ctx context.Context, v interface{}) error
}

// HistoryStore - узкий интерфейс хранилища для backfill
type HistoryStore interface {
	QuotesForPeriod(ctx context.Context, assetID int, window time.Duration) ([]quotes.HistoryPoint, error)
}

// Subscription - активная подписка на канал шины
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Subscriber - узкий интерфейс шины для подписки на каналы
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Manager владеет таблицей подключений и управляет сменой подписок.
// Инвариант: у подключения в любой момент не больше одного активного listener,
// и переходы subscribe/disconnect для одного подключения строго
// последовательны.
type Manager struct {
	store    HistoryStore
	bus      Subscriber
	registry *registry.Registry
	window   time.Duration

	mu    sync.Mutex
	conns map[string]*connection
}

// connection - одно живое подключение клиента
type connection struct {
	id        string
	transport Transport

	// mu сериализует переходы subscribe/disconnect этого подключения
	mu     sync.Mutex
	closed bool
	sub    *listener
}

// NewManager создает новый Manager
func NewManager(store HistoryStore, bus Subscriber, reg *registry.Registry, window time.Duration) *Manager {
	return &Manager{
		store:    store,
		bus:      bus,
		registry: reg,
		window:   window,
		conns:    make(map[string]*connection),
	}
}

// Connect регистрирует новое подключение без активной подписки
func (m *Manager) Connect(transport Transport) string {
	conn := &connection{
		id:        uuid.New().String(),
		transport: transport,
	}

	m.mu.Lock()
	m.conns[conn.id] = conn
	m.mu.Unlock()

	return conn.id
}

// Disconnect останавливает активный listener подключения и удаляет его из
// таблицы. Повторный вызов для неизвестного id - no-op.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	conn, ok := m.conns[id]
	delete(m.conns, id)
	m.mu.Unlock()

	if !ok {
		return
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.closed = true
	conn.retireLocked()
}

// Subscribe переключает подписку подключения на инструмент assetID:
// останавливает прежний listener, отправляет backfill и запускает новый
// listener. Неизвестный инструмент не трогает существующую подписку.
func (m *Manager) Subscribe(ctx context.Context, id string, assetID int) error {
	m.mu.Lock()
	conn, ok := m.conns[id]
	m.mu.Unlock()

	if !ok {
		return ErrConnectionNotFound
	}

	asset, ok := m.registry.ByID(assetID)
	if !ok {
		return ErrAssetNotFound
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.closed {
		return ErrConnectionNotFound
	}

	// Прежний listener должен полностью остановиться до запуска нового,
	// иначе два listener будут писать в один транспорт одновременно
	conn.retireLocked()

	// Подписываемся на шину ДО чтения истории: котировки, опубликованные
	// во время чтения, останутся в буфере подписки и не будут потеряны
	busSub, err := m.bus.Subscribe(ctx, quotes.ChannelKey(asset.ID))
	if err != nil {
		return fmt.Errorf("failed to subscribe to bus channel: %w", err)
	}

	points, err := m.store.QuotesForPeriod(ctx, asset.ID, m.window)
	if err != nil {
		// История недоступна - отправляем пустой backfill, живой поток важнее
		logger.Error("❌ Не удалось получить историю для %s: %v", asset.Name, err)
		points = nil
	}

	if err := conn.transport.Send(ctx, NewHistoryResponse(asset, points)); err != nil {
		busSub.Close()
		return fmt.Errorf("failed to send history: %w", err)
	}

	// Котировки не новее последней точки backfill уже доставлены
	var cutoff int64
	if len(points) > 0 {
		cutoff = points[len(points)-1].Time
	}

	conn.sub = startListener(busSub, conn.transport, asset, cutoff)
	logger.Info("📈 Подключение %s подписано на %s", conn.id, asset.Name)

	return nil
}

// ConnectionCount возвращает количество живых подключений
func (m *Manager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// retireLocked останавливает активный listener и дожидается его завершения.
// Вызывается только под conn.mu.
func (c *connection) retireLocked() {
	if c.sub == nil {
		return
	}
	c.sub.Stop()
	c.sub = nil
}
