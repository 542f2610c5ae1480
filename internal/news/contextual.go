package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nutriscan/internal/apperr"
	"nutriscan/internal/utils"

	"github.com/tidwall/gjson"
)

// ContextualProvider 调用 ContextualWeb (RapidAPI) 新闻搜索
type ContextualProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

func NewContextualProvider(baseURL, apiKey string, httpClient *http.Client) *ContextualProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ContextualProvider{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient, now: time.Now}
}

func (p *ContextualProvider) Name() string { return "contextual" }

func (p *ContextualProvider) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("autoCorrect", "true")
	params.Set("safeSearch", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", p.apiKey)
	req.Header.Set("X-RapidAPI-Host", req.URL.Host)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "news api unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Provider: p.Name(), RetryAfter: parseRetryAfter(resp.Header, p.now())}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(nil, "news api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Upstream(err, "read news api response")
	}
	if !gjson.ValidBytes(body) {
		return nil, apperr.Upstream(nil, "news api returned malformed JSON")
	}

	articles := make([]Article, 0, limit)
	gjson.GetBytes(body, "value").ForEach(func(_, v gjson.Result) bool {
		title := utils.PlainText(v.Get("title").String())
		summary := utils.PlainText(v.Get("description").String())
		link := v.Get("url").String()
		if title == "" || summary == "" || link == "" {
			return true
		}

		date, _, _ := strings.Cut(v.Get("datePublished").String(), "T")
		if date == "" {
			date = formatDate(p.now())
		}
		articles = append(articles, Article{
			Title:         title,
			Summary:       summary,
			URL:           link,
			Source:        v.Get("provider.name").String(),
			ImageURL:      v.Get("image.url").String(),
			PublishedDate: date,
		})
		return len(articles) < limit
	})
	return articles, nil
}
