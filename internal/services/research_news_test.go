package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"
	"nutriscan/internal/news"
	"nutriscan/internal/research"
	"nutriscan/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	calls   atomic.Int32
	studies []research.Study
	err     error
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]research.Study, error) {
	f.calls.Add(1)
	return f.studies, f.err
}

func TestStudiesForIngredientRefreshesWhenStale(t *testing.T) {
	gdb := testutil.NewDB(t)
	ing := testutil.CreateIngredient(t, gdb, "Caffeine")
	searcher := &fakeSearcher{studies: []research.Study{
		{Title: "Low citations", CitationCount: 1, Source: research.SourceEuropePMC},
		{Title: "High citations", CitationCount: 50, Source: research.SourceEuropePMC},
	}}
	svc := NewResearchService(gdb, NewIngredientService(gdb), searcher, time.Hour, time.Second, time.Minute)
	ctx := context.Background()

	studies, err := svc.StudiesForIngredient(ctx, ing.ID)
	require.NoError(t, err)
	require.Len(t, studies, 2)
	assert.Equal(t, "High citations", studies[0].Title)

	var stored models.Ingredient
	require.NoError(t, gdb.First(&stored, ing.ID).Error)
	require.NotNil(t, stored.LastResearchUpdate)

	// 未过期不再请求
	_, err = svc.StudiesForIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), searcher.calls.Load())

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	searcher.studies = searcher.studies[:1]
	studies, err = svc.StudiesForIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Len(t, studies, 1)
	assert.Equal(t, int32(2), searcher.calls.Load())
}

func TestStudiesForIngredientAbsorbsFailure(t *testing.T) {
	gdb := testutil.NewDB(t)
	ing := testutil.CreateIngredient(t, gdb, "Caffeine")
	require.NoError(t, gdb.Create(&models.ResearchStudy{IngredientID: ing.ID, Title: "Old but gold"}).Error)

	searcher := &fakeSearcher{err: apperr.Upstream(errors.New("502"), "research provider returned status 502")}
	svc := NewResearchService(gdb, NewIngredientService(gdb), searcher, time.Hour, time.Second, time.Minute)
	ctx := context.Background()

	studies, err := svc.StudiesForIngredient(ctx, ing.ID)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "Old but gold", studies[0].Title)

	// 冷却期内不重试
	_, err = svc.StudiesForIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), searcher.calls.Load())

	_, err = svc.StudiesForIngredient(ctx, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type fakeFetcher struct {
	result      news.Result
	err         error
	invalidated []string
}

func (f *fakeFetcher) FetchNews(context.Context, string, uint, int) (news.Result, error) {
	return f.result, f.err
}

func (f *fakeFetcher) Invalidate(name string, _ uint) {
	f.invalidated = append(f.invalidated, name)
}

func TestArticlesForIngredient(t *testing.T) {
	gdb := testutil.NewDB(t)
	ing := testutil.CreateIngredient(t, gdb, "Caffeine")
	fetcher := &fakeFetcher{result: news.Result{Source: news.SourceLive, Articles: []news.Article{
		{Title: "Caffeine study", Summary: "s", URL: "https://n.test/1", Source: "Wire", PublishedDate: "2026-01-02"},
		{Title: "Caffeine rules", Summary: "s", URL: "https://n.test/2", Source: "Wire", PublishedDate: "2026-01-03"},
	}}}
	svc := NewNewsService(gdb, NewIngredientService(gdb), fetcher)
	ctx := context.Background()

	res, err := svc.ArticlesForIngredient(ctx, ing.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, news.SourceLive, res.Source)

	var stored int64
	require.NoError(t, gdb.Model(&models.NewsArticle{}).Where("ingredient_id = ?", ing.ID).Count(&stored).Error)
	assert.Equal(t, int64(2), stored)

	// fallback 结果不落库
	fetcher.result = news.Result{Source: news.SourceFallback, Articles: news.Fallback("Caffeine", 5, time.Now())}
	_, err = svc.ArticlesForIngredient(ctx, ing.ID, 20)
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&models.NewsArticle{}).Where("ingredient_id = ?", ing.ID).Count(&stored).Error)
	assert.Equal(t, int64(2), stored)

	// 管道报错时读库
	fetcher.err = context.Canceled
	res, err = svc.ArticlesForIngredient(ctx, ing.ID, 20)
	require.NoError(t, err)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, news.SourceStored, res.Source)
	assert.Equal(t, "Caffeine rules", res.Articles[0].Title)
	assert.Empty(t, fetcher.invalidated)

	_, err = svc.ArticlesForIngredient(ctx, 9999, 20)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestArticlesForIngredientEvictsUnsavedLiveResult(t *testing.T) {
	gdb := testutil.NewDB(t)
	ing := testutil.CreateIngredient(t, gdb, "Caffeine")
	fetcher := &fakeFetcher{result: news.Result{Source: news.SourceLive, Articles: []news.Article{
		{Title: "Caffeine study", Summary: "s", URL: "https://n.test/1", Source: "Wire", PublishedDate: "2026-01-02"},
	}}}
	svc := NewNewsService(gdb, NewIngredientService(gdb), fetcher)

	// 表不存在时写库失败，但请求仍然返回实时结果
	require.NoError(t, gdb.Migrator().DropTable(&models.NewsArticle{}))

	res, err := svc.ArticlesForIngredient(context.Background(), ing.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, news.SourceLive, res.Source)
	assert.Len(t, res.Articles, 1)
	assert.Equal(t, []string{"Caffeine"}, fetcher.invalidated)
}
