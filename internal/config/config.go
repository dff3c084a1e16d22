// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the HTTP server configuration. Empty DSNs disable the
// corresponding store; an empty Gemini key disables the explainer.
type Server struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`

	RuleFile string `env:"RULE_FILE"`

	// LargeGainThreshold tunes the capital gain above which strategies carry a
	// professional-review risk. Empty keeps the engine default.
	LargeGainThreshold string `env:"LARGE_GAIN_THRESHOLD"`

	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL"`
	ExplainTimeout time.Duration `env:"EXPLAIN_TIMEOUT" envDefault:"15s"`
}

// LoadServer parses the server configuration from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server config: %w", err)
	}
	return cfg, nil
}
