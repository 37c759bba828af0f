// cmd/fetcher/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"forex-quotes-streamer/internal/config"
	"forex-quotes-streamer/internal/core/registry"
	"forex-quotes-streamer/internal/fetcher"
	"forex-quotes-streamer/internal/infrastructure/api/emcont"
	"forex-quotes-streamer/internal/infrastructure/persistence/postgres/database"
	"forex-quotes-streamer/internal/infrastructure/persistence/postgres/repository/quoterepo"
	"forex-quotes-streamer/internal/infrastructure/transport/redisbus"
	"forex-quotes-streamer/pkg/logger"
)

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

	// Отменяем стартовые ожидания по сигналу завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Подключаемся к базе данных
	db := database.NewService(cfg.Database)
	if err := db.Connect(ctx); err != nil {
		logger.Fatal("Не удалось подключиться к базе данных: %v", err)
	}
	defer db.Close()

	// Подключаемся к Redis
	redisClient, err := redisbus.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Не удалось подключиться к Redis: %v", err)
	}
	defer redisClient.Close()

	repo := quoterepo.NewRepository(db.DB())

	// Ждем появления инструментов в справочнике
	reg, err := registry.WaitForAssets(ctx, repo, cfg.Feed.AssetsWaitInterval)
	if err != nil {
		logger.Fatal("Ожидание инструментов прервано: %v", err)
	}

	// Собираем конвейер: фид -> DualSink -> {хранилище, шина}
	feed := emcont.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)
	sink := fetcher.NewDualSink(repo, redisbus.NewBus(redisClient))

	f := fetcher.NewFetcher(feed, sink, reg)
	if err := f.Start(cfg.Feed.PollInterval); err != nil {
		logger.Fatal("Не удалось запустить fetcher: %v", err)
	}

	<-ctx.Done()

	logger.Info("🛑 Получен сигнал завершения")
	f.Stop()
}
