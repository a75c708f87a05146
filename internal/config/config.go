package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения
type Config struct {
	Service  ServiceConfig
	Polling  PollingConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	Journal  JournalConfig
	LogLevel string
}

type ServiceConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	// RequestsPerSecond ограничивает суммарную частоту запросов к сервису
	RequestsPerSecond float64
	// Symbols — пары, по которым запрашиваются цены и анализ
	Symbols []string
	// ClosedTradesLimit — сколько закрытых сделок запрашивать за опрос
	ClosedTradesLimit int
	// BreakdownDays — глубина дневной разбивки для графика
	BreakdownDays int
}

type PollingConfig struct {
	Prices       time.Duration
	Balances     time.Duration
	Analysis     time.Duration
	BotStatus    time.Duration
	OpenTrades   time.Duration
	ClosedTrades time.Duration
	Analytics    time.Duration
	Breakdown    time.Duration
	Health       time.Duration
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JournalConfig struct {
	Enabled bool
}

// Load загружает конфигурацию из .env файла
func Load() (*Config, error) {
	// Загружаем .env файл (если есть)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	requestTimeout, err := time.ParseDuration(getEnv("SERVICE_REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_REQUEST_TIMEOUT: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("SERVICE_REQUESTS_PER_SECOND", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_REQUESTS_PER_SECOND: %w", err)
	}

	closedLimit, err := strconv.Atoi(getEnv("CLOSED_TRADES_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOSED_TRADES_LIMIT: %w", err)
	}

	breakdownDays, err := strconv.Atoi(getEnv("BREAKDOWN_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKDOWN_DAYS: %w", err)
	}

	polling, err := loadPolling()
	if err != nil {
		return nil, err
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	journalEnabled, err := strconv.ParseBool(getEnv("JOURNAL_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOURNAL_ENABLED: %w", err)
	}

	config := &Config{
		Service: ServiceConfig{
			BaseURL:           getEnv("SERVICE_BASE_URL", "http://localhost:5001"),
			RequestTimeout:    requestTimeout,
			RequestsPerSecond: rps,
			Symbols:           splitList(getEnv("SYMBOLS", "BTCUSDT,ETHUSDT,SOLUSDT,DOGEUSDT")),
			ClosedTradesLimit: closedLimit,
			BreakdownDays:     breakdownDays,
		},
		Polling: *polling,
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   chatID,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "trading_dashboard"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		Journal:  JournalConfig{Enabled: journalEnabled},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadPolling загружает интервалы опроса по доменам.
// Цены и статус бота — самые частые, остальное — медленнее.
func loadPolling() (*PollingConfig, error) {
	intervals := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"POLL_PRICES", "10s", nil},
		{"POLL_BALANCES", "30s", nil},
		{"POLL_ANALYSIS", "30s", nil},
		{"POLL_BOT_STATUS", "5s", nil},
		{"POLL_OPEN_TRADES", "10s", nil},
		{"POLL_CLOSED_TRADES", "10s", nil},
		{"POLL_ANALYTICS", "30s", nil},
		{"POLL_BREAKDOWN", "30s", nil},
		{"POLL_HEALTH", "30s", nil},
	}

	p := &PollingConfig{}
	intervals[0].dst = &p.Prices
	intervals[1].dst = &p.Balances
	intervals[2].dst = &p.Analysis
	intervals[3].dst = &p.BotStatus
	intervals[4].dst = &p.OpenTrades
	intervals[5].dst = &p.ClosedTrades
	intervals[6].dst = &p.Analytics
	intervals[7].dst = &p.Breakdown
	intervals[8].dst = &p.Health

	for _, iv := range intervals {
		d, err := time.ParseDuration(getEnv(iv.key, iv.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", iv.key, err)
		}
		*iv.dst = d
	}

	return p, nil
}

// Validate проверяет обязательные поля конфигурации
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("SERVICE_BASE_URL is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(c.Service.Symbols) == 0 {
		return fmt.Errorf("SYMBOLS is required")
	}
	if c.Journal.Enabled && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when JOURNAL_ENABLED=true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
