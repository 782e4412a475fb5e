// Package config собирает конфигурацию конвейера из переменных окружения с
// необязательным JSON-файлом поверх.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация одного запуска конвейера
type Config struct {
	// Dadata
	DadataToken   string        `json:"dadata_token"`
	DadataBaseURL string        `json:"dadata_base_url"`
	DadataTimeout time.Duration `json:"-"`
	MaxRequests   int           `json:"max_requests"`   // запросов в минуту
	RetryCooldown time.Duration `json:"-"`              // пауза перед повтором

	// Хранилища
	CacheDBPath string `json:"cache_db_path"`
	TargetDSN   string `json:"target_dsn"`
	TargetTable string `json:"target_table"`

	// Конвейер
	Workers int `json:"workers"`

	// Уведомления
	TelegramBotToken string `json:"telegram_bot_token"`
	TelegramChatID   string `json:"telegram_chat_id"`
}

// Load читает конфигурацию из окружения; если задан путь configPath,
// значения из JSON-файла применяются поверх окружения.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		DadataToken:      os.Getenv("DADATA_TOKEN"),
		DadataBaseURL:    getEnv("DADATA_BASE_URL", "https://suggestions.dadata.ru"),
		DadataTimeout:    getEnvDuration("DADATA_TIMEOUT", 30*time.Second),
		MaxRequests:      getEnvInt("DADATA_MAX_REQUESTS", 100),
		RetryCooldown:    getEnvDuration("DADATA_RETRY_COOLDOWN", 30*time.Second),
		CacheDBPath:      getEnv("CACHE_DB_PATH", "cache_inn/cache.db"),
		TargetDSN:        getEnv("TARGET_DSN", "reference.db"),
		TargetTable:      getEnv("TARGET_TABLE", "reference_compass"),
		Workers:          getEnvInt("ENRICH_WORKERS", 10),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("чтение файла конфигурации %s: %w", configPath, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор файла конфигурации %s: %w", configPath, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет, что заданы обязательные параметры.
func (c *Config) Validate() error {
	if c.DadataToken == "" {
		return fmt.Errorf("не задан DADATA_TOKEN")
	}
	if c.Workers < 1 {
		return fmt.Errorf("число воркеров должно быть положительным, задано %d", c.Workers)
	}
	if c.TargetDSN == "" {
		return fmt.Errorf("не задан TARGET_DSN")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
