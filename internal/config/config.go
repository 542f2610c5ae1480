package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	GinMode     string
	LogLevel    string
	LogFormat   string
	AdminAPIKey string

	// Database
	DBType            string // postgres, mysql, sqlite
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Sessions
	RedisURL   string
	SessionTTL time.Duration
	NodeID     int64
	HashIDSalt string

	// Voting / ranking
	VoteMaxRetries         int
	RankingRefreshInterval time.Duration

	// News
	NewsProvider          string // rss, contextual, openai
	NewsRSSBaseURL        string
	ContextualNewsAPIKey  string
	ContextualNewsBaseURL string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	NewsCacheTTL          time.Duration
	NewsCooldown          time.Duration
	NewsTimeout           time.Duration
	NewsMinResults        int
	NewsCacheSize         int

	// Research / products
	ResearchBaseURL   string
	ResearchTTL       time.Duration
	ProductAPIBaseURL string
	UpstreamTimeout   time.Duration
}

// Load 从环境变量读取配置并校验
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		DBType:            strings.ToLower(getEnv("DB_TYPE", "postgres")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		NodeID:     int64(getEnvAsInt("NODE_ID", 1)),
		HashIDSalt: getEnv("HASHID_SALT", "nutriscan"),

		VoteMaxRetries:         getEnvAsInt("VOTE_MAX_RETRIES", 3),
		RankingRefreshInterval: getEnvAsDuration("RANKING_REFRESH_INTERVAL", time.Hour),

		NewsProvider:          strings.ToLower(getEnv("NEWS_PROVIDER", "rss")),
		NewsRSSBaseURL:        getEnv("NEWS_RSS_BASE_URL", "https://news.google.com/rss/search"),
		ContextualNewsAPIKey:  getEnv("CONTEXTUAL_NEWS_API_KEY", ""),
		ContextualNewsBaseURL: getEnv("CONTEXTUAL_NEWS_BASE_URL", "https://contextualwebsearch-websearch-v1.p.rapidapi.com/api/Search/NewsSearchAPI"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		NewsCacheTTL:          getEnvAsDuration("NEWS_CACHE_TTL", 2*time.Hour),
		NewsCooldown:          getEnvAsDuration("NEWS_COOLDOWN", 15*time.Minute),
		NewsTimeout:           getEnvAsDuration("NEWS_TIMEOUT", 8*time.Second),
		NewsMinResults:        getEnvAsInt("NEWS_MIN_RESULTS", 5),
		NewsCacheSize:         getEnvAsInt("NEWS_CACHE_SIZE", 500),

		ResearchBaseURL:   getEnv("RESEARCH_BASE_URL", "https://www.ebi.ac.uk/europepmc/webservices/rest/search"),
		ResearchTTL:       getEnvAsDuration("RESEARCH_TTL", 24*time.Hour),
		ProductAPIBaseURL: getEnv("PRODUCT_API_BASE_URL", "https://world.openfoodfacts.org/api/v2/product"),
		UpstreamTimeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.DBType == "sqlite" && c.DatabaseURL == "" {
		c.DatabaseURL = "nutriscan.db"
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported GIN_MODE %q", c.GinMode)
	}

	switch c.NewsProvider {
	case "rss":
	case "contextual":
		if c.ContextualNewsAPIKey == "" {
			return fmt.Errorf("CONTEXTUAL_NEWS_API_KEY is required when NEWS_PROVIDER=contextual")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when NEWS_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported NEWS_PROVIDER %q", c.NewsProvider)
	}

	durations := map[string]time.Duration{
		"SESSION_TTL":              c.SessionTTL,
		"RANKING_REFRESH_INTERVAL": c.RankingRefreshInterval,
		"NEWS_CACHE_TTL":           c.NewsCacheTTL,
		"NEWS_COOLDOWN":            c.NewsCooldown,
		"NEWS_TIMEOUT":             c.NewsTimeout,
		"RESEARCH_TTL":             c.ResearchTTL,
		"UPSTREAM_TIMEOUT":         c.UpstreamTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	if c.VoteMaxRetries < 1 {
		return fmt.Errorf("VOTE_MAX_RETRIES must be at least 1")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
