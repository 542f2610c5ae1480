package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutriscan/internal/apperr"
	"nutriscan/internal/utils"

	"github.com/mmcdole/gofeed"
)

// RSSProvider 通过 Google News RSS 搜索
type RSSProvider struct {
	baseURL    string
	httpClient *http.Client
	parser     *gofeed.Parser
	now        func() time.Time
}

func NewRSSProvider(baseURL string, httpClient *http.Client) *RSSProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSProvider{
		baseURL:    baseURL,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		now:        time.Now,
	}
}

func (p *RSSProvider) Name() string { return "rss" }

func (p *RSSProvider) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NutriScan/1.0)")

	// 不用 parser.ParseURLWithContext，需要自己看状态码识别 429
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "rss feed unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Provider: p.Name(), RetryAfter: parseRetryAfter(resp.Header, p.now())}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(nil, "rss feed returned status %d", resp.StatusCode)
	}

	feed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(err, "rss feed malformed")
	}

	articles := make([]Article, 0, min(len(feed.Items), limit))
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		articles = append(articles, p.toArticle(feed, item))
	}
	return articles, nil
}

func (p *RSSProvider) toArticle(feed *gofeed.Feed, item *gofeed.Item) Article {
	title, source := splitSource(strings.TrimSpace(item.Title))
	if source == "" {
		source = feed.Title
	}

	published := p.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	}
	if image == "" {
		image = utils.FirstImageSrc(item.Content)
	}
	if image == "" {
		image = utils.FirstImageSrc(item.Description)
	}

	summary := utils.PlainText(item.Description)
	if summary == "" {
		summary = title
	}

	return Article{
		Title:         title,
		Summary:       summary,
		URL:           item.Link,
		Source:        source,
		ImageURL:      image,
		PublishedDate: formatDate(published),
	}
}

// splitSource splits Google News' "Headline - Publisher" titles.
func splitSource(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}
