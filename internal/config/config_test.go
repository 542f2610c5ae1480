package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("NEWS_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "rss", cfg.NewsProvider)
	assert.Equal(t, 2*time.Hour, cfg.NewsCacheTTL)
	assert.Equal(t, 5, cfg.NewsMinResults)
	assert.Equal(t, 3, cfg.VoteMaxRetries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "SQLite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEWS_TIMEOUT", "3s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "nutriscan.db", cfg.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.NewsTimeout)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown db", map[string]string{"DB_TYPE": "oracle"}},
		{"unknown provider", map[string]string{"NEWS_PROVIDER": "bing"}},
		{"contextual without key", map[string]string{"NEWS_PROVIDER": "contextual", "CONTEXTUAL_NEWS_API_KEY": ""}},
		{"openai without key", map[string]string{"NEWS_PROVIDER": "openai", "OPENAI_API_KEY": ""}},
		{"negative ttl", map[string]string{"SESSION_TTL": "-1h"}},
		{"zero retries", map[string]string{"VOTE_MAX_RETRIES": "0"}},
		{"unknown gin mode", map[string]string{"GIN_MODE": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
