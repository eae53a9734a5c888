package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds the process environment settings.
type Env struct {
	ConfigPath      string `env:"JOBSCRAPE_CONFIG"`
	RunRecord       string `env:"JOBSCRAPE_RUN_RECORD"`
	SlackWebhookURL string `env:"JOBSCRAPE_SLACK_WEBHOOK_URL"`
	RedisPassword   string `env:"JOBSCRAPE_REDIS_PASSWORD"`
}

// LoadEnv reads the environment, after loading files (default ".env") into
// it. Missing files are ignored; variables already set are not overridden.
func LoadEnv(files ...string) (Env, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Env{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}
