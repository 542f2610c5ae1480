package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriscan/internal/catalog"
	"nutriscan/internal/config"
	"nutriscan/internal/db"
	"nutriscan/internal/logger"
	"nutriscan/internal/news"
	"nutriscan/internal/research"
	"nutriscan/internal/router"
	"nutriscan/internal/services"
	"nutriscan/internal/session"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newStore(cfg *config.Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		logger.L.Info("REDIS_URL not set, using in-process token store")
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return store, nil
}

// newProvider 根据 NEWS_PROVIDER 选择新闻来源
func newProvider(cfg *config.Config, client *http.Client) news.Provider {
	switch cfg.NewsProvider {
	case "contextual":
		return news.NewContextualProvider(cfg.ContextualNewsBaseURL, cfg.ContextualNewsAPIKey, client)
	case "openai":
		return news.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, client)
	default:
		return news.NewRSSProvider(cfg.NewsRSSBaseURL, client)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := utils.NewNameGenerator(cfg.NodeID, cfg.HashIDSalt)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	pipeline, err := news.NewPipeline(newProvider(cfg, httpClient), news.Options{
		CacheTTL:   cfg.NewsCacheTTL,
		CacheSize:  cfg.NewsCacheSize,
		Cooldown:   cfg.NewsCooldown,
		Timeout:    cfg.NewsTimeout,
		MinResults: cfg.NewsMinResults,
	})
	if err != nil {
		return err
	}

	ranking := services.NewRankingService(gdb, cfg.RankingRefreshInterval)
	notifications := services.NewNotificationService(gdb)
	ingredients := services.NewIngredientService(gdb)
	discussions := services.NewDiscussionService(gdb, ranking, notifications)

	engine := router.New(router.Deps{
		DB:            gdb,
		AdminKey:      cfg.AdminAPIKey,
		Identity:      services.NewIdentityService(gdb, store, names, cfg.SessionTTL),
		Discussions:   discussions,
		Votes:         services.NewVoteService(gdb, ranking, cfg.VoteMaxRetries),
		Moderation:    services.NewModerationService(gdb),
		Bookmarks:     services.NewBookmarkService(gdb),
		Ingredients:   ingredients,
		Products:      services.NewProductService(gdb, catalog.NewClient(cfg.ProductAPIBaseURL, httpClient), ingredients),
		News:          services.NewNewsService(gdb, ingredients, pipeline),
		Research:      services.NewResearchService(gdb, ingredients, research.NewClient(cfg.ResearchBaseURL, httpClient), cfg.ResearchTTL, cfg.UpstreamTimeout, cfg.NewsCooldown),
		Activity:      services.NewActivityService(gdb),
		Notifications: notifications,
	})

	return run(ctx, &http.Server{Addr: ":" + cfg.Port, Handler: engine}, ranking, notifications)
}

func run(ctx context.Context, serv *http.Server, ranking *services.RankingService, notifications *services.NotificationService) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	eg, groupCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		ranking.Run(groupCtx)
		return nil
	})

	// 启动 http 服务
	eg.Go(func() error {
		logger.L.Info("server starting", zap.String("addr", serv.Addr))
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-groupCtx.Done()
		logger.L.Info("server stopping")

		timeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := serv.Shutdown(timeCtx); err != nil {
			logger.L.Warn("server shutdown", zap.Error(err))
		}
		return nil
	})

	err := eg.Wait()
	notifications.Wait()
	logger.L.Info("server stopped")
	return err
}
