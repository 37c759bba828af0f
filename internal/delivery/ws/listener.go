// internal/delivery/ws/listener.go
package ws

import (
	"context"
	"encoding/json"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/pkg/logger"
)

// listener - фоновая задача одного подключения: читает канал шины и
// пересылает котировки клиенту как point-сообщения до отмены
type listener struct {
	asset     quotes.Asset
	sub       Subscription
	transport Transport

	cancel context.CancelFunc
	done   chan struct{}

	// Метка времени последней отправленной точки: защита от дублей
	// на стыке backfill и живого потока
	lastSent int64
}

// startListener запускает новый listener с отсечкой cutoff
func startListener(sub Subscription, transport Transport, asset quotes.Asset, cutoff int64) *listener {
	ctx, cancel := context.WithCancel(context.Background())

	l := &listener{
		asset:     asset,
		sub:       sub,
		transport: transport,
		cancel:    cancel,
		done:      make(chan struct{}),
		lastSent:  cutoff,
	}

	go l.run(ctx)
	return l
}

// Stop отменяет listener и дожидается его полного завершения.
// После возврата подписка на шину снята и ни одно сообщение больше
// не будет отправлено в транспорт.
func (l *listener) Stop() {
	l.cancel()
	<-l.done
}

func (l *listener) run(ctx context.Context) {
	defer close(l.done)
	defer l.sub.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case payload, ok := <-l.sub.Messages():
			if !ok {
				return
			}

			var msg quotes.BusMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.Warn("⚠️ Некорректное сообщение в канале %s: %v",
					quotes.ChannelKey(l.asset.ID), err)
				continue
			}

			if msg.Timestamp <= l.lastSent {
				continue
			}
			l.lastSent = msg.Timestamp

			if err := l.transport.Send(ctx, NewPointResponse(l.asset, msg)); err != nil {
				// Транспорт умер или listener отменен - выходим,
				// Disconnect приберет остальное
				logger.Debug("Отправка точки %s прервана: %v", l.asset.Name, err)
				return
			}
		}
	}
}
