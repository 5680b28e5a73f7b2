// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string        `env:"LEDGER_LISTEN_ADDR" envDefault:":8080"`
	StorageDriver  string        `env:"LEDGER_STORAGE_DRIVER" envDefault:"memory"` // memory | sqlite | postgres
	SQLitePath     string        `env:"LEDGER_SQLITE_PATH" envDefault:"ledger.db"`
	PostgresDSN    string        `env:"LEDGER_POSTGRES_DSN"`
	KafkaBrokers   []string      `env:"LEDGER_KAFKA_BROKERS"` // empty disables event publishing
	KafkaTopic     string        `env:"LEDGER_KAFKA_TOPIC"`
	RequestTimeout time.Duration `env:"LEDGER_REQUEST_TIMEOUT" envDefault:"5s"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
