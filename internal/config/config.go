// Package config собирает конфигурацию сервера из переменных окружения.
// Конфигурация читается один раз при старте и передается в конструкторы явно.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Поддерживаемые хранилища записей
const (
	StoreAirtable = "airtable"
	StoreSQLite   = "sqlite"
)

// Ошибки валидации конфигурации
var (
	ErrMissingAPIKey = errors.New("AIRTABLE_API_KEY is required for the airtable store")
	ErrMissingBaseID = errors.New("AIRTABLE_BASE_ID is required for the airtable store")
	ErrUnknownStore  = errors.New("unknown store")
)

// AirtableConfig параметры подключения к Airtable
type AirtableConfig struct {
	APIKey string
	BaseID string
	Table  string
	APIURL string
}

// ServerConfig конфигурация процесса сервера
type ServerConfig struct {
	Airtable AirtableConfig
	Addr     string
	Store    string
	DBPath   string
	LogLevel slog.Level
	// RateLimit максимум отправок в минуту с одного IP, 0 отключает ограничение
	RateLimit int
	// TrustProxy разрешает брать IP клиента из X-Forwarded-For/X-Real-IP.
	// Включать только за своим reverse proxy.
	TrustProxy bool
}

// LoadServer читает конфигурацию из окружения, подставляя значения по умолчанию
func LoadServer() ServerConfig {
	return ServerConfig{
		Addr:  getEnv("SIGNFORM_ADDR", ":8080"),
		Store: strings.ToLower(strings.TrimSpace(getEnv("SIGNFORM_STORE", StoreAirtable))),
		Airtable: AirtableConfig{
			APIKey: os.Getenv("AIRTABLE_API_KEY"),
			BaseID: os.Getenv("AIRTABLE_BASE_ID"),
			Table:  getEnv("AIRTABLE_TABLE", "Formularios"),
			APIURL: os.Getenv("AIRTABLE_API_URL"),
		},
		DBPath:     getEnv("SIGNFORM_DB", "signform.db"),
		LogLevel:   ParseLevel(os.Getenv("SIGNFORM_LOG_LEVEL")),
		RateLimit:  getEnvInt("SIGNFORM_RATE_LIMIT", 0),
		TrustProxy: getEnvBool("SIGNFORM_TRUST_PROXY"),
	}
}

// Normalize приводит значения к каноническому виду.
// Вызывается после применения флагов, которые обходят LoadServer.
func (c *ServerConfig) Normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
}

// Validate проверяет, что выбранному хранилищу хватает параметров
func (c ServerConfig) Validate() error {
	switch c.Store {
	case StoreAirtable:
		if c.Airtable.APIKey == "" {
			return ErrMissingAPIKey
		}
		if c.Airtable.BaseID == "" {
			return ErrMissingBaseID
		}
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("database path cannot be empty")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}

	if c.Airtable.Table == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	return nil
}

// ParseLevel переводит строку уровня логирования в slog.Level (по умолчанию info)
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
