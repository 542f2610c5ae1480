package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"high", "fructose", "corn", "syrup"}, keywords("High Fructose Corn Syrup"))
	assert.Equal(t, []string{"211", "benzoate"}, keywords("E 211 Benzoate"))
	assert.Equal(t, []string{"e1"}, keywords("E1"))
}

func TestNormalizeTitleAndDedupe(t *testing.T) {
	assert.Equal(t, "caffeine may raise heartrate", normalizeTitle("  Caffeine MAY raise, heart-rate! "))

	in := []Article{
		{Title: "Caffeine may raise heart rate"},
		{Title: "caffeine may raise heart rate!"},
		{Title: "Caffeine and sleep"},
		{Title: "..."},
	}
	out := dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Caffeine may raise heart rate", out[0].Title)
	assert.Equal(t, "Caffeine and sleep", out[1].Title)
}

func TestSelectRelevantRelaxes(t *testing.T) {
	strict := Article{Title: "Caffeine linked to heart risk", Summary: "A new study"}
	keywordOnly := Article{Title: "Caffeine shortage hits cafes", Summary: "Supply chain woes"}
	unrelated := Article{Title: "Stock markets rally", Summary: "Investors cheer"}
	denied := Article{Title: "Caffeine fuels sports stars", Summary: "health drink"}

	t.Run("strict is enough", func(t *testing.T) {
		out := selectRelevant([]Article{strict, keywordOnly, unrelated, denied}, "Caffeine", 1)
		assert.Equal(t, []Article{strict}, out)
	})

	t.Run("relaxed adds keyword matches but keeps denylist", func(t *testing.T) {
		out := selectRelevant([]Article{strict, keywordOnly, unrelated, denied}, "Caffeine", 2)
		assert.Equal(t, []Article{strict, keywordOnly}, out)
	})

	t.Run("none keeps everything unique", func(t *testing.T) {
		out := selectRelevant([]Article{strict, keywordOnly, unrelated, denied, strict}, "Caffeine", 5)
		assert.Len(t, out, 4)
	})
}

func TestFallback(t *testing.T) {
	now := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

	out := Fallback("Soy Lecithin", 20, now)
	require.Len(t, out, 5)
	assert.Equal(t, "New Research Examines Soy Lecithin Health Effects", out[0].Title)
	assert.Equal(t, "https://scholar.google.com/scholar?q=Soy+Lecithin+health+effects+research", out[0].URL)
	assert.Equal(t, "FDA Health Updates", out[1].Source)
	for _, a := range out {
		assert.Equal(t, "2026-03-09", a.PublishedDate)
		assert.Contains(t, a.Summary, "Soy Lecithin")
	}

	assert.Len(t, Fallback("Soy Lecithin", 2, now), 2)
	assert.Equal(t, out, Fallback("Soy Lecithin", 5, now))
}
