package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment       string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DBDSN             string        `mapstructure:"DB_DSN"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBTxTimeout       time.Duration `mapstructure:"DB_TX_TIMEOUT"`
	OpsAddr           string        `mapstructure:"OPS_ADDR"`
	MaintenanceCron   string        `mapstructure:"MAINTENANCE_CRON"`
	AutoComplete      bool          `mapstructure:"AUTO_COMPLETE_ENABLED"`
	CompletionGrace   time.Duration `mapstructure:"COMPLETION_GRACE"`
	TelegramToken     string        `mapstructure:"TELEGRAM_TOKEN"`
	MigrationsEnabled bool          `mapstructure:"MIGRATIONS_ENABLED"`
}

// Значения по умолчанию; каждый ключ должен быть здесь, иначе viper не отдаст его в Unmarshal
var defaults = map[string]any{
	"ENV":                   "development",
	"LOG_LEVEL":             "",
	"DB_DSN":                "",
	"DB_MAX_CONNS":          10,
	"DB_TX_TIMEOUT":         "5s",
	"OPS_ADDR":              ":8081",
	"MAINTENANCE_CRON":      "@every 15m",
	"AUTO_COMPLETE_ENABLED": false,
	"COMPLETION_GRACE":      "15m",
	"TELEGRAM_TOKEN":        "",
	"MIGRATIONS_ENABLED":    true,
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBTxTimeout <= 0 {
		return fmt.Errorf("DB_TX_TIMEOUT must be positive, got %s", c.DBTxTimeout)
	}
	if c.CompletionGrace < 0 {
		return fmt.Errorf("COMPLETION_GRACE must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NotificationsEnabled - без токена уведомления не отправляются
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != ""
}
