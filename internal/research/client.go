// Package research queries Europe PMC for studies about an ingredient.
package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"nutriscan/internal/apperr"
	"nutriscan/internal/utils"

	"github.com/tidwall/gjson"
)

const SourceEuropePMC = "europepmc"

type Study struct {
	Title         string
	Authors       string
	Abstract      string
	URL           string
	PublishedDate string // YYYY-MM-DD
	Source        string
	CitationCount int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Query builds the Europe PMC search expression for an ingredient.
func Query(ingredient string) string {
	return fmt.Sprintf(`"%s" AND (health OR nutrition OR toxicity OR safety)`, strings.ReplaceAll(ingredient, `"`, ""))
}

// Search 按引用数排序返回最多 limit 条研究
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Study, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("resultType", "core")
	params.Set("sort", "CITED desc")
	params.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "research provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream(nil, "research provider returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, apperr.Upstream(err, "read research response")
	}
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "resultList").Exists() {
		return nil, apperr.Upstream(nil, "research provider returned malformed payload")
	}

	studies := make([]Study, 0, limit)
	gjson.GetBytes(body, "resultList.result").ForEach(func(_, r gjson.Result) bool {
		title := strings.TrimSpace(utils.PlainText(r.Get("title").String()))
		if title == "" {
			return true
		}
		studies = append(studies, Study{
			Title:         strings.TrimSuffix(title, "."),
			Authors:       r.Get("authorString").String(),
			Abstract:      utils.PlainText(r.Get("abstractText").String()),
			URL:           studyURL(r),
			PublishedDate: publishedDate(r),
			Source:        SourceEuropePMC,
			CitationCount: int(r.Get("citedByCount").Int()),
		})
		return len(studies) < limit
	})
	return studies, nil
}

func studyURL(r gjson.Result) string {
	if pmid := r.Get("pmid").String(); pmid != "" {
		return "https://europepmc.org/article/MED/" + pmid
	}
	if doi := r.Get("doi").String(); doi != "" {
		return "https://doi.org/" + doi
	}
	if id, src := r.Get("id").String(), r.Get("source").String(); id != "" && src != "" {
		return fmt.Sprintf("https://europepmc.org/article/%s/%s", src, id)
	}
	return ""
}

func publishedDate(r gjson.Result) string {
	if d := r.Get("firstPublicationDate").String(); len(d) >= 10 {
		return d[:10]
	}
	if y := r.Get("pubYear").String(); len(y) == 4 {
		return y + "-01-01"
	}
	return ""
}
