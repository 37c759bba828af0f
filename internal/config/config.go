// config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig - конфигурация PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Настройки пула соединений
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration

	// Повторные попытки подключения при старте
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// RedisConfig - конфигурация Redis
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FeedConfig - конфигурация внешнего источника котировок
type FeedConfig struct {
	URL          string
	Timeout      time.Duration
	PollInterval time.Duration

	// Интервал опроса таблицы assets до появления инструментов
	AssetsWaitInterval time.Duration
}

// GatewayConfig - конфигурация WebSocket шлюза
type GatewayConfig struct {
	Addr string

	// Окно истории для backfill при подписке, в минутах
	HistoryWindowMinutes int
}

// Config - основная структура конфигурации приложения
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Feed     FeedConfig
	Gateway  GatewayConfig

	// Logging
	LogLevel string
	LogFile  string
	Debug    bool
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(envPath string) (*Config, error) {
	// Загружаем .env файл
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			Name:            getEnvString("DB_NAME", "quotes"),
			SSLMode:         getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectDelay:    getEnvDuration("DB_CONNECT_DELAY", 3*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnvString("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Feed: FeedConfig{
			URL:                getEnvString("RATES_URL", "https://rates.emcont.com/"),
			Timeout:            getEnvDuration("RATES_TIMEOUT", 10*time.Second),
			PollInterval:       getEnvDuration("FETCH_INTERVAL", time.Second),
			AssetsWaitInterval: getEnvDuration("ASSETS_WAIT_INTERVAL", 5*time.Second),
		},
		Gateway: GatewayConfig{
			Addr:                 getEnvString("GATEWAY_ADDR", ":8080"),
			HistoryWindowMinutes: getEnvInt("HISTORY_WINDOW_MINUTES", 30),
		},
		LogLevel: getEnvString("LOG_LEVEL", "INFO"),
		LogFile:  getEnvString("LOG_FILE", "logs/app.log"),
		Debug:    getEnvBool("DEBUG", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("RATES_URL must not be empty")
	}

	if c.Feed.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("fetch interval must be at least 100ms")
	}

	if c.Gateway.HistoryWindowMinutes < 1 {
		return fmt.Errorf("history window must be at least 1 minute")
	}

	if c.Database.ConnectAttempts < 1 {
		return fmt.Errorf("database connect attempts must be at least 1")
	}

	return nil
}

// HistoryWindow возвращает окно истории как time.Duration
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.Gateway.HistoryWindowMinutes) * time.Minute
}

// Вспомогательные функции для чтения переменных окружения

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
