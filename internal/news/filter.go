package news

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type relevance int

const (
	relevanceStrict  relevance = iota // keyword + food/health term
	relevanceRelaxed                  // keyword only
	relevanceNone
)

var foodHealthTerms = []string{
	"food", "health", "nutrition", "diet", "eating", "ingredient", "additive",
	"fda", "study", "research", "safety", "consumption", "beverage", "drink",
	"product", "label", "regulatory", "medical", "wellness", "disease",
	"obesity", "diabetes", "heart", "brain", "body", "effect", "risk",
}

// 无关领域，strict 和 relaxed 都排除
var deniedTopics = []string{"entertainment", "politics", "sports", "weather"}

// keywords are the words of the ingredient name longer than two characters.
func keywords(name string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		if n := strings.TrimSpace(strings.ToLower(name)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func (lvl relevance) accepts(a Article, kws []string) bool {
	if lvl == relevanceNone {
		return true
	}
	text := strings.ToLower(a.Title + " " + a.Summary)
	if containsAny(text, deniedTopics) || !containsAny(text, kws) {
		return false
	}
	return lvl == relevanceRelaxed || containsAny(text, foodHealthTerms)
}

// selectRelevant dedupes, then relaxes the filter level until at least min articles survive.
func selectRelevant(articles []Article, name string, min int) []Article {
	unique := dedupe(articles)
	kws := keywords(name)

	var out []Article
	for lvl := relevanceStrict; lvl <= relevanceNone; lvl++ {
		out = make([]Article, 0, len(unique))
		for _, a := range unique {
			if lvl.accepts(a, kws) {
				out = append(out, a)
			}
		}
		if len(out) >= min {
			break
		}
	}
	return out
}

// normalizeTitle lowercases, drops punctuation and collapses whitespace.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// dedupe keeps the first article per normalised title, preserving order.
func dedupe(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := normalizeTitle(a.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
