package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"thirdcoast.systems/ytingest/internal/youtube"
)

type Config struct {
	// WebServer Configuration
	WebServerPort      int `mapstructure:"WEBSERVER_PORT" validate:"gte=1,lte=65535"`
	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"gte=1"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES" validate:"gte=1"`

	// Upstream and webhook
	YouTubeAPIKey string `mapstructure:"YOUTUBE_API_KEY" validate:"required"`
	YouTubeAPIURL string `mapstructure:"YOUTUBE_API_URL" validate:"required,url"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET" validate:"required"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=text json"`
}

// LogValue keeps credentials out of the logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("webserver_port", c.WebServerPort),
		slog.Int("rate_limit_per_minute", c.RateLimitPerMinute),
		slog.Bool("database_dsn_set", c.DatabaseDSN != ""),
		slog.Int("database_retries", c.DatabaseRetries),
		slog.Bool("youtube_api_key_set", c.YouTubeAPIKey != ""),
		slog.String("youtube_api_url", c.YouTubeAPIURL),
		slog.Bool("webhook_secret_set", c.WebhookSecret != ""),
		slog.String("log_level", c.LogLevel),
		slog.String("log_format", c.LogFormat),
	)
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	typ := reflect.TypeOf(c)

	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			_ = viper.BindEnv(tag)
		}
	}
}

// loadDotEnv populates the process environment from a .env file in the
// working directory. Variables already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	slog.Info("Loaded environment from .env")
	return nil
}

func LoadConfig(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8000)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("YOUTUBE_API_URL", youtube.DefaultSearchURL)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "config", cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
