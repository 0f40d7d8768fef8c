package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Stats scopes for nutritional aggregation.
const (
	StatsScopePlan = "plan"
	StatsScopeWeek = "week"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	LogLevel     string

	// Simulated network latency for identity and order operations.
	SimulatedLatency time.Duration

	// Meal planning
	StatsScope       string
	CaloriesUpper    float64
	CaloriesLower    float64
	ProteinsUpper    float64
	ProteinsLower    float64
	CarbsUpper       float64
	CarbsLower       float64
	FatsUpper        float64
	FatsLower        float64
	DefaultUnitPrice float64

	// Household used to scale nutrition thresholds.
	DefaultAdults   int
	DefaultChildren int

	// Checkout
	ClearCartOnCheckout bool

	// Identity
	SessionSecret string
	SessionTTL    time.Duration

	// Recipe ingestion (optional)
	GhostURL        string
	GhostContentKey string
	GhostRecipeTag  string
	GeminiAPIKey    string
	GroqAPIKey      string

	// Pause between extractions to stay under free-tier rate limits.
	IngestPause time.Duration

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// Every value has a default so the CLI runs without any environment.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		DatabasePath:        getEnv("DATABASE_PATH", "data/meal-kit.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StatsScope:          strings.ToLower(getEnv("STATS_SCOPE", StatsScopePlan)),
		SessionSecret:       getEnv("SESSION_SECRET", "meal-kit-dev-secret"),
		GhostURL:            os.Getenv("GHOST_API_URL"),
		GhostContentKey:     os.Getenv("GHOST_CONTENT_API_KEY"),
		GhostRecipeTag:      os.Getenv("GHOST_RECIPE_TAG"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:  os.Getenv("TELEGRAM_WEBHOOK_URL"),
		ClearCartOnCheckout: true,
	}

	if cfg.StatsScope != StatsScopePlan && cfg.StatsScope != StatsScopeWeek {
		return nil, fmt.Errorf("STATS_SCOPE must be %q or %q, got %q", StatsScopePlan, StatsScopeWeek, cfg.StatsScope)
	}

	var err error
	if cfg.SimulatedLatency, err = getDuration("SIMULATED_LATENCY", time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.IngestPause, err = getDuration("INGEST_PAUSE", 5*time.Second); err != nil {
		return nil, err
	}

	floats := []struct {
		key string
		dst *float64
		def float64
	}{
		{"NUTRITION_CALORIES_UPPER", &cfg.CaloriesUpper, 14000},
		{"NUTRITION_CALORIES_LOWER", &cfg.CaloriesLower, 10000},
		{"NUTRITION_PROTEINS_UPPER", &cfg.ProteinsUpper, 700},
		{"NUTRITION_PROTEINS_LOWER", &cfg.ProteinsLower, 350},
		{"NUTRITION_CARBS_UPPER", &cfg.CarbsUpper, 1750},
		{"NUTRITION_CARBS_LOWER", &cfg.CarbsLower, 1000},
		{"NUTRITION_FATS_UPPER", &cfg.FatsUpper, 550},
		{"NUTRITION_FATS_LOWER", &cfg.FatsLower, 300},
		{"SHOPPING_DEFAULT_UNIT_PRICE", &cfg.DefaultUnitPrice, 2.5},
	}
	for _, f := range floats {
		if *f.dst, err = getFloat(f.key, f.def); err != nil {
			return nil, err
		}
	}

	if cfg.DefaultAdults, err = getInt("DEFAULT_ADULTS", 2); err != nil {
		return nil, err
	}
	if cfg.DefaultChildren, err = getInt("DEFAULT_CHILDREN", 0); err != nil {
		return nil, err
	}

	if v := os.Getenv("CLEAR_CART_ON_CHECKOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CLEAR_CART_ON_CHECKOUT %q: %w", v, err)
		}
		cfg.ClearCartOnCheckout = b
	}

	// Telegram Config (Optional for CLI, required for Bot)
	for _, idStr := range strings.Split(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"), ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", idStr, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", v, err)
		}
	}

	return cfg, nil
}

// RequireTelegram checks the settings the Telegram bot cannot start without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// RequireIngestion checks the settings needed to pull recipes from Ghost.
func (c *Config) RequireIngestion() error {
	if c.GhostURL == "" {
		return fmt.Errorf("GHOST_API_URL environment variable not set")
	}
	if c.GhostContentKey == "" {
		return fmt.Errorf("GHOST_CONTENT_API_KEY environment variable not set")
	}
	return c.RequireExtraction()
}

// RequireExtraction checks that at least one LLM provider is configured.
func (c *Config) RequireExtraction() error {
	if c.GroqAPIKey == "" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY or GEMINI_API_KEY environment variable not set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return i, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
