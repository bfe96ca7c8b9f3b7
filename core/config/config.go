// Package config loads and validates application configuration from a YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "abitbot/core/database"
	"abitbot/core/logger"
	"abitbot/core/redisconn"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed back by Telegram in the
	// X-Telegram-Bot-Api-Secret-Token header of each webhook delivery.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// OpenAIConfig holds settings of the answering service.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	Model   string `yaml:"model" envconfig:"OPENAI_MODEL"`
}

// ScraperConfig controls the website snapshot worker.
type ScraperConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"SCRAPER_ENABLED"`
	// Schedule is a cron expression; empty selects the daily default.
	Schedule string `yaml:"schedule" envconfig:"SCRAPER_SCHEDULE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const defaultOpenAIModel = "gpt-4o"

// Config aggregates the full application configuration.
type Config struct {
	Telegram TelegramConfig      `yaml:"telegram"`
	Webhook  WebhookConfig       `yaml:"webhook"`
	Logging  logger.Config       `yaml:"logging"`
	Database coredatabase.Config `yaml:"database"`
	Redis    redisconn.Config    `yaml:"redis"`
	OpenAI   OpenAIConfig        `yaml:"openai"`
	Scraper  ScraperConfig       `yaml:"scraper"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if strings.TrimSpace(cfg.OpenAI.Model) == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}

	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if cfg.Scraper.Enabled && strings.TrimSpace(cfg.Scraper.Schedule) == "" {
		cfg.Scraper.Schedule = "0 3 * * *"
	}

	return nil
}
