// Package config содержит логику чтения конфигурации тикет-бекофиса.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации тикет-бекофиса.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	APIURL        string `env:"PRETIX_API_URL"`
	APIToken      string `env:"PRETIX_API_TOKEN"`
	OrganizerSlug string `env:"PRETIX_ORGANIZER_SLUG"`
	EventSlug     string `env:"PRETIX_EVENT_SLUG"`
	OperatorEmail string `env:"PRETIX_EMAIL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envAPIURL := cfg.APIURL
	envAPIToken := cfg.APIToken
	envOrganizerSlug := cfg.OrganizerSlug
	envEventSlug := cfg.EventSlug
	envOperatorEmail := cfg.OperatorEmail

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.APIURL, "u", "", "pretix API base URL")
	flag.StringVar(&cfg.APIToken, "t", "", "pretix API token")
	flag.StringVar(&cfg.OrganizerSlug, "o", "", "pretix organizer slug")
	flag.StringVar(&cfg.EventSlug, "e", "", "pretix event slug")
	flag.StringVar(&cfg.OperatorEmail, "m", "", "operator email attached to created orders")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envAPIURL != "" {
		cfg.APIURL = envAPIURL
	}
	if envAPIToken != "" {
		cfg.APIToken = envAPIToken
	}
	if envOrganizerSlug != "" {
		cfg.OrganizerSlug = envOrganizerSlug
	}
	if envEventSlug != "" {
		cfg.EventSlug = envEventSlug
	}
	if envOperatorEmail != "" {
		cfg.OperatorEmail = envOperatorEmail
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// Validate проверяет параметры, без которых доступ к каталогу невозможен.
// Пустой OperatorEmail допускается: его отсутствие обрабатывается при
// оформлении заказа, а не при старте процесса.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("pretix API URL is required")
	}
	if c.APIToken == "" {
		return errors.New("pretix API token is required")
	}
	if c.OrganizerSlug == "" {
		return errors.New("pretix organizer slug is required")
	}
	if c.EventSlug == "" {
		return errors.New("pretix event slug is required")
	}
	return nil
}
