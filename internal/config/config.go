package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Bot      BotConfig
	Database DatabaseConfig
	App      AppConfig
	Workday  WorkdayConfig
	Breaks   BreakConfig
}

type BotConfig struct {
	Token          string
	WebhookBaseURL string // empty selects long polling
	SuperAdminIDs  []int64
	AllowedPhones  []string
	// ConversationTimeout resets an inactive multi-step conversation.
	ConversationTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// WorkdayConfig holds the fixed civil-time workday window.
type WorkdayConfig struct {
	StartHour     int
	StartMinute   int
	EndHour       int
	EndMinute     int
	LateTolerance time.Duration
}

// BreakConfig holds smoke and lunch break policy parameters.
type BreakConfig struct {
	SmokeQuotaWeekday int
	SmokeQuotaFriday  int
	SmokeMinInterval  time.Duration
	SmokeDuration     time.Duration
	LunchDuration     time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_bot"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	superAdminIDs, err := parseIDList(getEnvSlice("SUPER_ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUPER_ADMIN_IDS: %w", err)
	}

	config.Bot = BotConfig{
		Token:               getEnv("BOT_TOKEN", ""),
		WebhookBaseURL:      getEnv("WEBHOOK_BASE_URL", ""),
		SuperAdminIDs:       superAdminIDs,
		AllowedPhones:       getEnvSlice("ALLOWED_PHONES"),
		ConversationTimeout: 10 * time.Minute,
	}

	config.Workday = WorkdayConfig{
		StartHour:     8,
		StartMinute:   0,
		EndHour:       19,
		EndMinute:     0,
		LateTolerance: 15 * time.Minute,
	}

	config.Breaks = BreakConfig{
		SmokeQuotaWeekday: 6,
		SmokeQuotaFriday:  3,
		SmokeMinInterval:  90 * time.Minute,
		SmokeDuration:     5 * time.Minute,
		LunchDuration:     30 * time.Minute,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if len(c.Bot.SuperAdminIDs) == 0 {
		return fmt.Errorf("SUPER_ADMIN_IDS is required")
	}
	if c.App.Env == "production" && c.Database.SSLMode == "disable" {
		return fmt.Errorf("DB_SSL_MODE must not be disable in production")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func parseIDList(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a numeric ID: %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
