package config

import (
	"testing"
	"time"

	"github.com/pauljones0/swapThemes/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("IMAGE_S3_ENDPOINT", "")
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GeminiModel)
	assert.Equal(t, 10*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 1, cfg.GenerationMaxAttempts)
	assert.Equal(t, []string{"FR", "IT", "JP", "US", "DE"}, cfg.Countries)
	assert.Equal(t, suggest.Quotas{MaxPerCountry: 2, MaxPerEra: 2}, cfg.Quotas())
	assert.Equal(t, 12*7*24*time.Hour, cfg.HistoryLookback)
	assert.False(t, cfg.GenerationEnabled())
	assert.False(t, cfg.ImageStoreEnabled())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("SUGGESTION_COUNTRIES", " SE, ,NO ")
	t.Setenv("MAX_PER_COUNTRY", "3")
	t.Setenv("GENERATION_TIMEOUT", "2s")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("DISCORD_BOT_TOKEN", "bot")
	t.Setenv("DISCORD_REPORT_CHANNEL_ID", "chan")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"SE", "NO"}, cfg.Countries)
	assert.Equal(t, 3, cfg.MaxPerCountry)
	assert.Equal(t, 2*time.Second, cfg.GenerationTimeout)
	assert.True(t, cfg.GenerationEnabled())
	assert.True(t, cfg.ReportsEnabled())
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"No countries":     {"SUGGESTION_COUNTRIES", " , "},
		"Zero quota":       {"MAX_PER_ERA", "0"},
		"Bad duration":     {"GENERATION_TIMEOUT", "soon"},
		"Zero attempts":    {"GENERATION_MAX_ATTEMPTS", "0"},
		"Negative history": {"HISTORY_LOOKBACK", "-1h"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
