package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the process settings, read from FEEDSYNC_* variables. The
// API URL defaults to the hosted post store.
type Config struct {
	APIURL      string        `env:"FEEDSYNC_API_URL"      envDefault:"https://final-api-nkm9.onrender.com" validate:"required,url"`
	DataDir     string        `env:"FEEDSYNC_DATA_DIR"     envDefault:"data/badger"                         validate:"required"`
	ListenAddr  string        `env:"FEEDSYNC_LISTEN_ADDR"  envDefault:":8080"                               validate:"required"`
	HTTPTimeout time.Duration `env:"FEEDSYNC_HTTP_TIMEOUT" envDefault:"0"                                   validate:"gte=0"`
	LogLevel    string        `env:"FEEDSYNC_LOG_LEVEL"    envDefault:"info"                                validate:"oneof=debug info warn error"`
	LogFormat   string        `env:"FEEDSYNC_LOG_FORMAT"   envDefault:"text"                                validate:"oneof=text json"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
