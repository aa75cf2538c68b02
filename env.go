package main

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServerEnv holds the API server settings read from the environment
type ServerEnv struct {
	Addr       string `env:"RENTVSBUY_ADDR" envDefault:"localhost:8080"`
	DBPath     string `env:"RENTVSBUY_DB" envDefault:"rentvsbuy-runs.db"` // Empty disables run history
	ConfigPath string `env:"RENTVSBUY_CONFIG" envDefault:"config.yaml"`
	MaxSamples int    `env:"RENTVSBUY_MAX_SAMPLES" envDefault:"10000"` // Per-request sample cap
	MaxYears   int    `env:"RENTVSBUY_MAX_YEARS" envDefault:"100"`
	Workers    int    `env:"RENTVSBUY_WORKERS" envDefault:"0"` // Used when the request leaves simulation.workers at 0
}

// LoadServerEnv reads an optional .env file into the process environment and then
// parses ServerEnv. Variables already set in the environment take precedence.
func LoadServerEnv(files ...string) (ServerEnv, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg ServerEnv
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxSamples < 1 {
		return cfg, fmt.Errorf("RENTVSBUY_MAX_SAMPLES must be at least 1, got %d", cfg.MaxSamples)
	}
	return cfg, nil
}
