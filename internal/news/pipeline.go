package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nutriscan/internal/logger"
	"nutriscan/internal/metrics"
	"nutriscan/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit    = 20
	minPerQuery     = 5
	defaultCacheTTL = 2 * time.Hour
)

type Options struct {
	CacheTTL   time.Duration
	CacheSize  int
	Cooldown   time.Duration
	Timeout    time.Duration
	MinResults int
}

// Result is what FetchNews hands back; Source tells where the articles came from.
type Result struct {
	Articles []Article `json:"articles"`
	Source   string    `json:"source"`
}

// Pipeline 新闻聚合：缓存 -> 冷却检查 -> 多查询并发 -> 过滤去重 -> 兜底
type Pipeline struct {
	provider Provider
	opts     Options
	cache    *utils.TTLCache[[]Article]
	group    singleflight.Group

	mu            sync.Mutex
	cooldownUntil time.Time

	now func() time.Time
}

func NewPipeline(provider Provider, opts Options) (*Pipeline, error) {
	if provider == nil {
		return nil, errors.New("news provider is required")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.MinResults <= 0 {
		opts.MinResults = 5
	}
	cache, err := utils.NewTTLCache[[]Article](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("news cache: %w", err)
	}
	return &Pipeline{provider: provider, opts: opts, cache: cache, now: time.Now}, nil
}

// SetClock overrides the time source of the pipeline and its cache.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
	p.cache.SetClock(now)
}

func cacheKey(name string, ingredientID uint) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(strings.TrimSpace(name)), ingredientID)
}

// FetchNews never fails because of the provider; the error is only the caller's ctx error.
func (p *Pipeline) FetchNews(ctx context.Context, name string, ingredientID uint, limit int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := cacheKey(name, ingredientID)
	if cached, ok := p.cache.Get(key); ok {
		return p.result(truncate(cached, limit), SourceCache), nil
	}

	if until, cooling := p.coolingDown(); cooling {
		logger.L.Debug("news provider cooling down, serving fallback",
			zap.String("provider", p.provider.Name()), zap.Time("until", until))
		return p.result(Fallback(name, limit, p.now()), SourceFallback), nil
	}

	ch := p.group.DoChan(key, func() (any, error) {
		articles := p.fetchLive(context.WithoutCancel(ctx), name, limit)
		if len(articles) > 0 {
			p.cache.Set(key, articles, p.opts.CacheTTL)
		}
		return articles, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		articles, _ := res.Val.([]Article)
		if len(articles) == 0 {
			return p.result(Fallback(name, limit, p.now()), SourceFallback), nil
		}
		return p.result(truncate(articles, limit), SourceLive), nil
	}
}

// Invalidate drops the cached live result for the ingredient so the next fetch goes upstream.
func (p *Pipeline) Invalidate(name string, ingredientID uint) {
	p.cache.Delete(cacheKey(name, ingredientID))
}

func (p *Pipeline) result(articles []Article, source string) Result {
	metrics.NewsResultsTotal.WithLabelValues(source).Inc()
	return Result{Articles: articles, Source: source}
}

func (p *Pipeline) queries(name string) []string {
	if planner, ok := p.provider.(QueryPlanner); ok {
		return planner.Queries(name)
	}
	return []string{
		name + " food health",
		name + " nutrition",
		name + " FDA",
		name + " study research",
	}
}

// fetchLive fans the queries out under one deadline and filters the merged results.
func (p *Pipeline) fetchLive(ctx context.Context, name string, limit int) []Article {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	queries := p.queries(name)
	perQuery := max((limit+len(queries)-1)/len(queries), minPerQuery)
	results := make([][]Article, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			// 单个查询失败不取消其他查询
			results[i], errs[i] = p.provider.Search(gctx, q, perQuery)
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged    []Article
		failures  int
		retryHint time.Duration
		limited   bool
	)
	for i, err := range errs {
		if err == nil {
			merged = append(merged, results[i]...)
			continue
		}
		failures++
		reason := "error"
		var rl *RateLimitError
		if errors.As(err, &rl) {
			limited = true
			reason = "rate_limited"
			retryHint = max(retryHint, rl.RetryAfter)
		} else if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.UpstreamErrorsTotal.WithLabelValues(p.provider.Name(), reason).Inc()
		logger.L.Warn("news query failed",
			zap.String("provider", p.provider.Name()),
			zap.String("query", queries[i]),
			zap.Error(err))
	}

	if limited || failures == len(queries) {
		cooldown := p.opts.Cooldown
		if retryHint > 0 {
			cooldown = retryHint
		}
		p.startCooldown(cooldown)
	}

	return selectRelevant(merged, name, p.opts.MinResults)
}

func (p *Pipeline) coolingDown() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cooldownUntil, p.now().Before(p.cooldownUntil)
}

func (p *Pipeline) startCooldown(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	until := p.now().Add(d)
	if until.After(p.cooldownUntil) {
		p.cooldownUntil = until
	}
	logger.L.Warn("news provider cooling down",
		zap.String("provider", p.provider.Name()), zap.Duration("for", d))
}

// truncate copies so callers never alias cached slices.
func truncate(articles []Article, limit int) []Article {
	n := min(len(articles), limit)
	out := make([]Article, n)
	copy(out, articles[:n])
	return out
}
