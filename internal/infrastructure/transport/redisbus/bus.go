// internal/infrastructure/transport/redisbus/bus.go
package redisbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forex-quotes-streamer/internal/config"
	"forex-quotes-streamer/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// NewClient создает клиент Redis из конфигурации и проверяет подключение
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,

		// Настройки пула соединений
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// Таймауты
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("✅ Connected to Redis: %s:%d", cfg.Host, cfg.Port)
	return client, nil
}

// Bus - шина fan-out поверх Redis Pub/Sub
type Bus struct {
	client *redis.Client
}

// NewBus создает новую шину
func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// Publish публикует сообщение в канал
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe подписывается на канал. К моменту возврата подписка уже подтверждена
// сервером: все сообщения, опубликованные после возврата, будут доставлены,
// даже если чтение из Messages начнется позже.
func (b *Bus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Receive дожидается подтверждения команды SUBSCRIBE
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", channel, err)
	}

	return &Subscription{pubsub: pubsub, quit: make(chan struct{})}, nil
}

// Subscription - активная подписка на один канал
type Subscription struct {
	pubsub *redis.PubSub
	quit   chan struct{}

	once      sync.Once
	closeOnce sync.Once
	out       chan []byte
}

// Messages возвращает поток сообщений подписки. Канал закрывается после Close
func (s *Subscription) Messages() <-chan []byte {
	s.once.Do(func() {
		s.out = make(chan []byte, 64)
		go func() {
			defer close(s.out)
			for msg := range s.pubsub.Channel() {
				select {
				case s.out <- []byte(msg.Payload):
				case <-s.quit:
					// Потребитель ушел - не зависаем на отправке
					return
				}
			}
		}()
	})
	return s.out
}

// Close отписывается от канала и закрывает поток сообщений
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	return s.pubsub.Close()
}
