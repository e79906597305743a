package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	// WeatherAPIKey is the WeatherAPI.com secret threaded into every query.
	WeatherAPIKey  string `validate:"required"`
	WeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds outbound provider calls (0 = transport default).
	HTTPTimeout time.Duration `validate:"gte=0"`

	// Session retention.
	SessionMaxIdle       time.Duration `validate:"gt=0"`
	SessionSweepInterval time.Duration `validate:"gt=0"`
	SessionMax           int           `validate:"gte=0"` // 0 = unlimited

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	Port string `validate:"required,numeric"`

	// TelegramBotToken enables the Telegram front end when set.
	TelegramBotToken string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.WeatherBaseURL = getenvDefault("WEATHER_API_BASE_URL", "https://api.weatherapi.com/v1")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0"); err != nil {
		return nil, err
	}
	if cfg.SessionMaxIdle, err = getenvDuration("SESSION_MAX_IDLE", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	cfg.SessionMax = getenvInt("SESSION_MAX", 1000)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
