// internal/delivery/ws/server.go
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"forex-quotes-streamer/internal/core/registry"
	"forex-quotes-streamer/pkg/logger"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Server - WebSocket шлюз клиентского протокола
type Server struct {
	manager  *Manager
	registry *registry.Registry

	httpServer *http.Server
}

// NewServer создает новый Server
func NewServer(addr string, manager *Manager, reg *registry.Registry) *Server {
	s := &Server{
		manager:  manager,
		registry: reg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	logger.Info("🚀 WebSocket шлюз слушает %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает HTTP сервер
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("🛑 Останавливаем WebSocket шлюз")
	return s.httpServer.Shutdown(ctx)
}

// handleWS обслуживает одно подключение: принимает запросы клиента и
// диспатчит их в Manager. Ошибки протокола не закрывают подключение.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn("⚠️ Не удалось принять подключение: %v", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	transport := newWSTransport(c)

	connID := s.manager.Connect(transport)
	defer s.manager.Disconnect(connID)

	logger.Info("🔌 Новое подключение %s", connID)

	for {
		var req Request
		if err := wsjson.Read(ctx, c, &req); err != nil {
			logger.Info("🔌 Подключение %s закрыто", connID)
			return
		}

		switch req.Action {
		case ActionAssets:
			if err := transport.Send(ctx, NewAssetsResponse(s.registry.All())); err != nil {
				return
			}

		case ActionSubscribe:
			err := s.manager.Subscribe(ctx, connID, req.AssetID)
			switch {
			case errors.Is(err, ErrAssetNotFound):
				if err := transport.Send(ctx, NewAssetNotFoundResponse()); err != nil {
					return
				}
			case err != nil:
				logger.Error("❌ Подписка %s на инструмент %d: %v", connID, req.AssetID, err)
			}

		default:
			if err := transport.Send(ctx, NewUnknownActionResponse(req.Action)); err != nil {
				return
			}
		}
	}
}

// wsTransport - адаптер websocket-соединения под интерфейс Transport.
// Мьютекс сериализует записи: в транспорт пишут и обработчик запросов,
// и listener.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Send(ctx context.Context, v interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return wsjson.Write(ctx, t.conn, v)
}
