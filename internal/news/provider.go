// Package news aggregates ingredient news from a swappable provider with
// caching, relevance filtering, cool-down and deterministic fallback.
package news

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Result sources.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
	SourceStored   = "stored" // 管道出错时从数据库读出的旧数据
)

// Article is a provider-neutral news item.
type Article struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	ImageURL      string `json:"imageUrl,omitempty"`
	PublishedDate string `json:"publishedDate"` // YYYY-MM-DD
}

// Provider searches one upstream.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Article, error)
}

// QueryPlanner lets a provider replace the default query set.
type QueryPlanner interface {
	Queries(name string) []string
}

// RateLimitError signals HTTP 429; RetryAfter is zero when the upstream sent no hint.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return e.Provider + ": rate limited"
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
