// Package catalog looks products up in Open Food Facts by barcode.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"

	"github.com/tidwall/gjson"
)

const userAgent = "NutriScan/1.0 (+https://github.com/nutriscan)"

// ErrProductNotFound is returned when the catalog has no entry for the barcode.
var ErrProductNotFound = errors.New("product not found in catalog")

// Product is the subset of a catalog entry we persist.
type Product struct {
	Barcode     string
	Name        string
	Brand       string
	ImageURL    string
	NutriScore  string
	Ingredients []models.ProductIngredient
	Nutriments  []byte // raw JSON object
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Lookup GET {base}/{barcode}.json
func (c *Client) Lookup(ctx context.Context, barcode string) (*Product, error) {
	url := fmt.Sprintf("%s/%s.json", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "product catalog unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream(nil, "product catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Upstream(err, "read product catalog response")
	}
	if !gjson.ValidBytes(body) {
		return nil, apperr.Upstream(nil, "product catalog returned malformed JSON")
	}
	return parseProduct(barcode, body)
}

func parseProduct(barcode string, body []byte) (*Product, error) {
	root := gjson.ParseBytes(body)
	if root.Get("status").Int() != 1 || !root.Get("product").Exists() {
		return nil, ErrProductNotFound
	}
	p := root.Get("product")

	out := &Product{
		Barcode:    barcode,
		Name:       firstNonEmpty(p.Get("product_name").String(), p.Get("product_name_en").String(), p.Get("generic_name").String()),
		Brand:      strings.TrimSpace(strings.Split(p.Get("brands").String(), ",")[0]),
		ImageURL:   p.Get("image_url").String(),
		NutriScore: normalizeGrade(p.Get("nutriscore_grade").String()),
	}
	if out.Name == "" {
		out.Name = "Unknown product"
	}

	var allergens []string
	p.Get("allergens_tags").ForEach(func(_, v gjson.Result) bool {
		allergens = append(allergens, strings.TrimPrefix(v.String(), "en:"))
		return true
	})

	p.Get("ingredients").ForEach(func(_, v gjson.Result) bool {
		name := strings.TrimSpace(strings.Trim(v.Get("text").String(), "_*"))
		if name == "" {
			return true
		}
		ing := models.ProductIngredient{Name: name}
		if pct := v.Get("percent_estimate"); pct.Exists() && pct.Type == gjson.Number {
			f := pct.Float()
			ing.Percentage = &f
		}
		if v.Get("vegan").String() == "no" {
			ing.Category = "animal"
		}
		ing.Allergens = matchAllergens(name, allergens)
		out.Ingredients = append(out.Ingredients, ing)
		return true
	})

	if n := p.Get("nutriments"); n.IsObject() {
		out.Nutriments = []byte(n.Raw)
	}
	return out, nil
}

// matchAllergens attributes product-level allergen tags to the ingredients that name them.
func matchAllergens(name string, allergens []string) []string {
	lower := strings.ToLower(name)
	var out []string
	for _, a := range allergens {
		if strings.Contains(lower, a) {
			out = append(out, a)
		}
	}
	return out
}

func normalizeGrade(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	switch g {
	case "a", "b", "c", "d", "e":
		return g
	}
	return "none"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
