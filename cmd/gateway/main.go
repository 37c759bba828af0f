// cmd/gateway/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forex-quotes-streamer/internal/config"
	"forex-quotes-streamer/internal/core/registry"
	"forex-quotes-streamer/internal/delivery/ws"
	"forex-quotes-streamer/internal/infrastructure/persistence/postgres/database"
	"forex-quotes-streamer/internal/infrastructure/persistence/postgres/repository/quoterepo"
	"forex-quotes-streamer/internal/infrastructure/transport/redisbus"
	"forex-quotes-streamer/pkg/logger"
)

// busAdapter приводит *redisbus.Bus к интерфейсу ws.Subscriber
type busAdapter struct {
	bus *redisbus.Bus
}

func (a busAdapter) Subscribe(ctx context.Context, channel string) (ws.Subscription, error) {
	return a.bus.Subscribe(ctx, channel)
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	if err := logger.InitGlobal(cfg.LogFile, cfg.LogLevel, cfg.Debug); err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.GetLogger().Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Подключаемся к базе данных и инициализируем схему
	db := database.NewService(cfg.Database)
	if err := db.Connect(ctx); err != nil {
		logger.Fatal("Не удалось подключиться к базе данных: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal("Не удалось инициализировать схему: %v", err)
	}

	// Подключаемся к Redis
	redisClient, err := redisbus.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Не удалось подключиться к Redis: %v", err)
	}
	defer redisClient.Close()

	repo := quoterepo.NewRepository(db.DB())

	// Загружаем справочник инструментов
	reg, err := registry.WaitForAssets(ctx, repo, cfg.Feed.AssetsWaitInterval)
	if err != nil {
		logger.Fatal("Ожидание инструментов прервано: %v", err)
	}

	manager := ws.NewManager(repo, busAdapter{bus: redisbus.NewBus(redisClient)}, reg, cfg.HistoryWindow())
	server := ws.NewServer(cfg.Gateway.Addr, manager, reg)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("🛑 Получен сигнал завершения")
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Ошибка сервера: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Ошибка остановки сервера: %v", err)
	}
}
