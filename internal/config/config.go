package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EventsBackendMemory = "memory"
	EventsBackendRedis  = "redis"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Events Config
	EventsBackend  string `env:"EVENTS_BACKEND" envDefault:"memory"`
	EventsChannel  string `env:"EVENTS_CHANNEL" envDefault:"feuerwehr:events"`
	EventQueueSize int    `env:"EVENT_QUEUE_SIZE" envDefault:"256"`

	// Geocoder Config
	GeocoderURL       string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent string        `env:"GEOCODER_USER_AGENT" envDefault:"Feuerwehr-Melder/1.0"`
	GeocoderTimeout   time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`

	// Activation Config
	ActivationInterval     time.Duration `env:"ACTIVATION_INTERVAL" envDefault:"1s"`
	ActivationInitialDelay time.Duration `env:"ACTIVATION_INITIAL_DELAY" envDefault:"500ms"`

	// WebSocket Config
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"5s"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		EventsBackend:          strings.ToLower(getEnv("EVENTS_BACKEND", EventsBackendMemory)),
		EventsChannel:          getEnv("EVENTS_CHANNEL", "feuerwehr:events"),
		EventQueueSize:         getEnvAsInt("EVENT_QUEUE_SIZE", 256),
		GeocoderURL:            getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:      getEnv("GEOCODER_USER_AGENT", "Feuerwehr-Melder/1.0"),
		GeocoderTimeout:        getEnvAsDuration("GEOCODER_TIMEOUT", 10*time.Second),
		ActivationInterval:     getEnvAsDuration("ACTIVATION_INTERVAL", time.Second),
		ActivationInitialDelay: getEnvAsDuration("ACTIVATION_INITIAL_DELAY", 500*time.Millisecond),
		WSWriteTimeout:         getEnvAsDuration("WS_WRITE_TIMEOUT", 5*time.Second),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.EventsBackend != EventsBackendMemory && cfg.EventsBackend != EventsBackendRedis {
		return nil, fmt.Errorf("EVENTS_BACKEND must be %q or %q, got %q", EventsBackendMemory, EventsBackendRedis, cfg.EventsBackend)
	}

	if cfg.ActivationInterval <= 0 {
		return nil, fmt.Errorf("ACTIVATION_INTERVAL must be positive")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
