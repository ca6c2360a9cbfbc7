// Package config maps environment variables (optionally seeded from a .env file) into a typed Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pauljones0/swapThemes/internal/suggest"
)

// Config holds all runtime configuration.
type Config struct {
	Port      string `env:"PORT"           envDefault:"8080"`
	ProjectID string `env:"GCP_PROJECT_ID"`
	LogLevel  string `env:"LOG_LEVEL"      envDefault:"info"`

	// Text generation (Gemini). An empty key selects the unavailable generator.
	GeminiAPIKey          string        `env:"GEMINI_API_KEY"`
	GeminiModel           string        `env:"GEMINI_MODEL"                 envDefault:"gemini-2.5-flash-lite"`
	GenerationTimeout     time.Duration `env:"GENERATION_TIMEOUT"           envDefault:"10s"`
	GenerationMaxAttempts int           `env:"GENERATION_MAX_ATTEMPTS"      envDefault:"1"`
	GenerationTemperature float32       `env:"GENERATION_TEMPERATURE"       envDefault:"0.9"`
	GenerationMaxTokens   int32         `env:"GENERATION_MAX_OUTPUT_TOKENS" envDefault:"4096"`

	// Suggestion pipeline
	Countries       []string      `env:"SUGGESTION_COUNTRIES" envDefault:"FR,IT,JP,US,DE" envSeparator:","`
	MaxPerCountry   int           `env:"MAX_PER_COUNTRY"      envDefault:"2"`
	MaxPerEra       int           `env:"MAX_PER_ERA"          envDefault:"2"`
	HistoryLookback time.Duration `env:"HISTORY_LOOKBACK"     envDefault:"2016h"`

	// Cover photos. Empty values select the unavailable variants.
	UnsplashAccessKey  string `env:"UNSPLASH_ACCESS_KEY"`
	ImageS3Endpoint    string `env:"IMAGE_S3_ENDPOINT"`
	ImageS3Region      string `env:"IMAGE_S3_REGION"`
	ImageS3AccessKey   string `env:"IMAGE_S3_ACCESS_KEY"`
	ImageS3SecretKey   string `env:"IMAGE_S3_SECRET_KEY"`
	ImageS3Bucket      string `env:"IMAGE_S3_BUCKET"      envDefault:"theme-covers"`
	ImageS3UseSSL      bool   `env:"IMAGE_S3_USE_SSL"     envDefault:"true"`
	ImageS3PublicURL   string `env:"IMAGE_S3_PUBLIC_URL"`

	// Operator reports
	DiscordBotToken        string `env:"DISCORD_BOT_TOKEN"`
	DiscordReportChannelID string `env:"DISCORD_REPORT_CHANNEL_ID"`

	// CronSecret, when set, must match the X-Cron-Secret header on /cron/weekly.
	CronSecret string `env:"CRON_SECRET"`
}

// Load reads an optional .env file then parses the environment.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()
	return Parse()
}

// Parse maps the current environment into a Config and checks it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	cfg.Countries = cleanList(cfg.Countries)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case len(c.Countries) == 0:
		return fmt.Errorf("SUGGESTION_COUNTRIES must list at least one country")
	case c.MaxPerCountry < 1 || c.MaxPerEra < 1:
		return fmt.Errorf("MAX_PER_COUNTRY and MAX_PER_ERA must be at least 1")
	case c.GenerationTimeout <= 0:
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	case c.GenerationMaxAttempts < 1:
		return fmt.Errorf("GENERATION_MAX_ATTEMPTS must be at least 1")
	case c.HistoryLookback <= 0:
		return fmt.Errorf("HISTORY_LOOKBACK must be positive")
	}
	return nil
}

// Quotas returns the filter quotas.
func (c *Config) Quotas() suggest.Quotas {
	return suggest.Quotas{MaxPerCountry: c.MaxPerCountry, MaxPerEra: c.MaxPerEra}
}

func (c *Config) GenerationEnabled() bool { return c.GeminiAPIKey != "" }

func (c *Config) PhotoSearchEnabled() bool { return c.UnsplashAccessKey != "" }

func (c *Config) ImageStoreEnabled() bool {
	return c.ImageS3Endpoint != "" && c.ImageS3AccessKey != "" && c.ImageS3SecretKey != ""
}

func (c *Config) ReportsEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordReportChannelID != ""
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
