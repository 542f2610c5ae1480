package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutriscan/internal/apperr"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"
)

// OpenAIProvider 让模型生成新闻摘要，链接指向学术搜索
type OpenAIProvider struct {
	client openai.Client
	model  string
	now    func() time.Time
}

func NewOpenAIProvider(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		now:    time.Now,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Queries asks once per ingredient; the prompt already covers every angle.
func (p *OpenAIProvider) Queries(name string) []string {
	return []string{name}
}

func (p *OpenAIProvider) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	prompt := fmt.Sprintf(`Generate %d realistic and informative news article summaries about "%s" as a food ingredient. Cover recent health research, FDA regulation and safety updates, nutritional benefits or concerns, industry usage trends and consumer advice from experts.

Return only a JSON array, no prose:
[{"title": "...", "summary": "2-3 sentences", "category": "Health|Nutrition|Regulation|Research|Industry", "source": "news source name", "date": "YYYY-MM-DD"}]`, limit, query)

	userMessage := openai.ChatCompletionUserMessageParam{
		Content: openai.ChatCompletionUserMessageParamContentUnion{
			OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
				{OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt}},
			},
		},
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{OfUser: &userMessage},
		},
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{Provider: p.Name()}
		}
		return nil, apperr.Upstream(err, "completion request failed")
	}
	if len(completion.Choices) == 0 {
		return nil, apperr.Upstream(nil, "completion returned no choices")
	}
	return p.parse(completion.Choices[0].Message.Content, query, limit)
}

// parse accepts a bare array or an object with an "articles" array, optionally fenced.
func (p *OpenAIProvider) parse(content, name string, limit int) ([]Article, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if !gjson.Valid(content) {
		return nil, apperr.Upstream(nil, "completion is not valid JSON")
	}
	list := gjson.Parse(content)
	if !list.IsArray() {
		list = list.Get("articles")
	}
	if !list.IsArray() {
		return nil, apperr.Upstream(nil, "completion has no article list")
	}

	today := formatDate(p.now())
	articles := make([]Article, 0, limit)
	list.ForEach(func(_, v gjson.Result) bool {
		title := strings.TrimSpace(v.Get("title").String())
		if title == "" {
			return true
		}
		date := v.Get("date").String()
		if _, err := time.Parse("2006-01-02", date); err != nil {
			date = today
		}
		articles = append(articles, Article{
			Title:         title,
			Summary:       strings.TrimSpace(v.Get("summary").String()),
			URL:           scholarURL(name, title),
			Source:        v.Get("source").String(),
			PublishedDate: date,
		})
		return len(articles) < limit
	})
	return articles, nil
}

// scholarURL searches the ingredient plus the first three words of the headline.
func scholarURL(name, title string) string {
	words := strings.Fields(title)
	if len(words) > 3 {
		words = words[:3]
	}
	q := strings.TrimSpace(name + " " + strings.Join(words, " "))
	return "https://scholar.google.com/scholar?" + url.Values{"q": {q}}.Encode()
}
