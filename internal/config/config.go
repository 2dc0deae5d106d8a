package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDiscordAPIBaseURL = "https://discord.com/api/v10"

// AppConfig holds all configuration for the application. It is loaded once at
// startup and passed explicitly to constructors; nothing reads the environment
// after Load returns.
type AppConfig struct {
	DatabaseURL       string
	DiscordBotToken   string // optional; absence degrades Discord calls, never crashes
	DiscordAPIBaseURL string
	Port              string
	SendDelay         time.Duration
	AMQPURL           string // optional; empty disables the outcome publisher
	ReminderCronSpec  string // optional; both reminder keys must be set to enable the scheduler
	ReminderEventSlug string
	LogLevel          string
	Environment       string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.DiscordBotToken = os.Getenv("DISCORD_BOT_TOKEN")

	cfg.DiscordAPIBaseURL = os.Getenv("DISCORD_API_BASE_URL")
	if cfg.DiscordAPIBaseURL == "" {
		cfg.DiscordAPIBaseURL = defaultDiscordAPIBaseURL
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	delayStr := os.Getenv("SEND_DELAY_MS")
	if delayStr == "" {
		cfg.SendDelay = time.Second
	} else {
		ms, err := strconv.Atoi(delayStr)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid SEND_DELAY_MS: %q", delayStr)
		}
		cfg.SendDelay = time.Duration(ms) * time.Millisecond
	}

	cfg.AMQPURL = os.Getenv("AMQP_URL")

	cfg.ReminderCronSpec = os.Getenv("REMINDER_CRON_SPEC")
	cfg.ReminderEventSlug = os.Getenv("REMINDER_EVENT_SLUG")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}

// SchedulerEnabled reports whether the reminder scheduler should be started.
func (c *AppConfig) SchedulerEnabled() bool {
	return c.ReminderCronSpec != "" && c.ReminderEventSlug != ""
}
