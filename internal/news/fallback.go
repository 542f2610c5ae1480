package news

import (
	"fmt"
	"net/url"
	"time"
)

type fallbackTemplate struct {
	title   string
	summary string
	query   string
	source  string
}

var fallbackTemplates = []fallbackTemplate{
	{
		title:   "New Research Examines %s Health Effects",
		summary: "Recent scientific studies investigate the potential health impacts of %s consumption, providing updated guidance for consumers and healthcare professionals.",
		query:   " health effects research",
		source:  "Nutrition Research Journal",
	},
	{
		title:   "FDA Updates Guidelines for %s Safety",
		summary: "The Food and Drug Administration reviews current safety standards for %s, considering new research findings and industry practices.",
		query:   " FDA safety guidelines",
		source:  "FDA Health Updates",
	},
	{
		title:   "Nutritionists Weigh In on %s in Diet",
		summary: "Leading nutrition experts discuss the role of %s in modern diets, offering evidence-based recommendations for consumers.",
		query:   " nutrition diet recommendations",
		source:  "Dietitian Weekly",
	},
	{
		title:   "Industry Trends: %s Usage in Food Production",
		summary: "Food manufacturers adapt their use of %s in response to consumer demands and regulatory changes, shaping industry practices.",
		query:   " food industry trends",
		source:  "Food Industry News",
	},
	{
		title:   "Consumer Health: Understanding %s Labels",
		summary: "Health advocates help consumers better understand food labels containing %s, promoting informed dietary choices.",
		query:   " food labels consumer health",
		source:  "Consumer Health Today",
	},
}

// Fallback returns up to five deterministic articles linking to scholarly searches.
func Fallback(name string, limit int, now time.Time) []Article {
	if limit <= 0 || limit > len(fallbackTemplates) {
		limit = len(fallbackTemplates)
	}
	date := formatDate(now)

	out := make([]Article, 0, limit)
	for _, t := range fallbackTemplates[:limit] {
		out = append(out, Article{
			Title:         fmt.Sprintf(t.title, name),
			Summary:       fmt.Sprintf(t.summary, name),
			URL:           "https://scholar.google.com/scholar?" + url.Values{"q": {name + t.query}}.Encode(),
			Source:        t.source,
			PublishedDate: date,
		})
	}
	return out
}
