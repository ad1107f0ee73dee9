package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          int    `envconfig:"PARROT_PORT" default:"8760"`
	NatsURL       string `envconfig:"NATS_URL" default:"nats://hermes:4222"`
	NatsToken     string `envconfig:"NATS_TOKEN"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	SystemPrompt  string `envconfig:"PARROT_SYSTEM_PROMPT"`
	StatePath     string `envconfig:"PARROT_STATE_PATH" default:"~/.parrot/ingest-state.json"`
	CollapseTurns bool   `envconfig:"PARROT_COLLAPSE_TURNS" default:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
