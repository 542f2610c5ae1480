package news

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu      sync.Mutex
	calls   atomic.Int32
	queries []string
	search  func(ctx context.Context, query string, limit int) ([]Article, error)
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.search(ctx, query, limit)
}

// healthArticles returns n distinct relevant articles per query.
func healthArticles(n int) func(context.Context, string, int) ([]Article, error) {
	return func(_ context.Context, query string, _ int) ([]Article, error) {
		out := make([]Article, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, Article{
				Title:         fmt.Sprintf("%s health study %d", query, i),
				Summary:       "Researchers looked at caffeine and heart health",
				URL:           fmt.Sprintf("https://news.test/%s/%d", query, i),
				Source:        "Test News",
				PublishedDate: "2026-01-01",
			})
		}
		return out, nil
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestPipeline(t *testing.T, p Provider) (*Pipeline, *clock) {
	t.Helper()
	pl, err := NewPipeline(p, Options{
		CacheTTL:   time.Hour,
		CacheSize:  10,
		Cooldown:   10 * time.Minute,
		Timeout:    time.Second,
		MinResults: 5,
	})
	require.NoError(t, err)
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	pl.SetClock(c.Now)
	return pl, c
}

func TestFetchNewsLiveThenCache(t *testing.T) {
	p := &stubProvider{search: healthArticles(3)}
	pl, clk := newTestPipeline(t, p)
	ctx := context.Background()

	res, err := pl.FetchNews(ctx, "Caffeine", 7, 10)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Articles, 10)
	assert.Equal(t, int32(4), p.calls.Load())
	assert.ElementsMatch(t, []string{
		"Caffeine food health", "Caffeine nutrition", "Caffeine FDA", "Caffeine study research",
	}, p.queries)

	// 名称大小写不同也命中同一个缓存键
	res, err = pl.FetchNews(ctx, "caffeine", 7, 4)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Len(t, res.Articles, 4)
	assert.Equal(t, int32(4), p.calls.Load())

	clk.Advance(2 * time.Hour)
	res, err = pl.FetchNews(ctx, "Caffeine", 7, 4)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, int32(8), p.calls.Load())
}

func TestFetchNewsDedupesAcrossQueries(t *testing.T) {
	p := &stubProvider{search: func(context.Context, string, int) ([]Article, error) {
		return []Article{
			{Title: "Caffeine health study", Summary: "caffeine research"},
			{Title: "CAFFEINE HEALTH STUDY!", Summary: "caffeine research"},
		}, nil
	}}
	pl, _ := newTestPipeline(t, p)

	res, err := pl.FetchNews(context.Background(), "Caffeine", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	require.Len(t, res.Articles, 1)
}

func TestFetchNewsRateLimitOpensCooldown(t *testing.T) {
	p := &stubProvider{search: func(context.Context, string, int) ([]Article, error) {
		return nil, &RateLimitError{Provider: "stub", RetryAfter: 30 * time.Second}
	}}
	pl, clk := newTestPipeline(t, p)
	ctx := context.Background()

	res, err := pl.FetchNews(ctx, "Caffeine", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Len(t, res.Articles, 5)
	calls := p.calls.Load()

	// 冷却期内不再调用上游
	res, err = pl.FetchNews(ctx, "Caffeine", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Len(t, res.Articles, 3)
	assert.Equal(t, calls, p.calls.Load())

	clk.Advance(31 * time.Second)
	_, err = pl.FetchNews(ctx, "Caffeine", 1, 3)
	require.NoError(t, err)
	assert.Greater(t, p.calls.Load(), calls)
}

func TestFetchNewsTotalFailureFallsBack(t *testing.T) {
	p := &stubProvider{search: func(context.Context, string, int) ([]Article, error) {
		return nil, errors.New("boom")
	}}
	pl, _ := newTestPipeline(t, p)

	res, err := pl.FetchNews(context.Background(), "Sodium Benzoate", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "FDA Updates Guidelines for Sodium Benzoate Safety", res.Articles[1].Title)

	_, cooling := pl.coolingDown()
	assert.True(t, cooling)
}

func TestFetchNewsPartialFailureStaysLive(t *testing.T) {
	p := &stubProvider{}
	p.search = func(ctx context.Context, query string, limit int) ([]Article, error) {
		if query == "Caffeine FDA" {
			return nil, errors.New("boom")
		}
		return healthArticles(2)(ctx, query, limit)
	}
	pl, _ := newTestPipeline(t, p)

	res, err := pl.FetchNews(context.Background(), "Caffeine", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Articles, 6)

	_, cooling := pl.coolingDown()
	assert.False(t, cooling)
}

func TestFetchNewsTimeoutFallsBack(t *testing.T) {
	p := &stubProvider{search: func(ctx context.Context, _ string, _ int) ([]Article, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	pl, err := NewPipeline(p, Options{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	res, err := pl.FetchNews(context.Background(), "Caffeine", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestFetchNewsCancelledContext(t *testing.T) {
	p := &stubProvider{search: healthArticles(3)}
	pl, _ := newTestPipeline(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pl.FetchNews(ctx, "Caffeine", 1, 20)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestFetchNewsConcurrentCallersShareFetch(t *testing.T) {
	release := make(chan struct{})
	p := &stubProvider{}
	p.search = func(ctx context.Context, query string, limit int) ([]Article, error) {
		<-release
		return healthArticles(3)(ctx, query, limit)
	}
	pl, _ := newTestPipeline(t, p)

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := pl.FetchNews(context.Background(), "Caffeine", 1, 20)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(4), p.calls.Load())
	for _, r := range results {
		assert.NotEqual(t, SourceFallback, r.Source)
		assert.Len(t, r.Articles, 12)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	p := &stubProvider{search: healthArticles(3)}
	pl, _ := newTestPipeline(t, p)
	ctx := context.Background()

	_, err := pl.FetchNews(ctx, "Caffeine", 7, 10)
	require.NoError(t, err)
	res, err := pl.FetchNews(ctx, "Caffeine", 7, 10)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, int32(4), p.calls.Load())

	pl.Invalidate("CAFFEINE", 7)
	res, err = pl.FetchNews(ctx, "Caffeine", 7, 10)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, int32(8), p.calls.Load())
}
