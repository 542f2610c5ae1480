package router

import (
	"net/http"

	"nutriscan/internal/handlers"
	"nutriscan/internal/metrics"
	"nutriscan/internal/middleware"
	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由需要的全部服务
type Deps struct {
	DB       *gorm.DB
	AdminKey string

	Identity      *services.IdentityService
	Discussions   *services.DiscussionService
	Votes         *services.VoteService
	Moderation    *services.ModerationService
	Bookmarks     *services.BookmarkService
	Ingredients   *services.IngredientService
	Products      *services.ProductService
	News          *services.NewsService
	Research      *services.ResearchService
	Activity      *services.ActivityService
	Notifications *services.NotificationService
}

// New builds the engine with middleware and every route registered.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.GinZap(), middleware.PrometheusMiddleware(), middleware.ErrorHandler())

	r.GET("/healthz", healthz(d.DB))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.Use(middleware.LoadUser(d.Identity))
	RegisterRoutes(api, d)
	return r
}

func RegisterRoutes(api *gin.RouterGroup, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Identity)
	discussionHandler := handlers.NewDiscussionHandler(d.Discussions)
	commentHandler := handlers.NewCommentHandler(d.Discussions)
	voteHandler := handlers.NewVoteHandler(d.Votes)
	moderationHandler := handlers.NewModerationHandler(d.Moderation)
	bookmarkHandler := handlers.NewBookmarkHandler(d.Bookmarks)
	ingredientHandler := handlers.NewIngredientHandler(d.Ingredients, d.News, d.Research)
	productHandler := handlers.NewProductHandler(d.Products)
	userHandler := handlers.NewUserHandler(d.Identity, d.Activity)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications)
	adminHandler := handlers.NewAdminHandler(d.Moderation, d.Discussions)

	// 公共路由 (Public Routes)
	api.POST("/auth/anonymous", authHandler.Anonymous)                        // 匿名注册
	api.GET("/products/barcode/:barcode", productHandler.ByBarcode)           // 条码查询
	api.GET("/ingredients/trending", ingredientHandler.Trending)              // 热门成分
	api.GET("/ingredients/:id", ingredientHandler.Get)                        // 成分详情
	api.GET("/ingredients/:id/news", ingredientHandler.News)                  // 相关新闻
	api.GET("/ingredients/:id/research", ingredientHandler.Research)          // 相关研究
	api.GET("/discussions/ingredient/:id", discussionHandler.ListByIngredient) // 成分下的讨论
	api.GET("/discussions/:id", discussionHandler.Get)                        // 讨论详情
	api.GET("/comments/discussion/:id", commentHandler.ListByDiscussion)      // 讨论下的评论
	api.GET("/users/:id/activity", userHandler.Activity)                      // 用户动态

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)
		authorized.POST("/auth/logout", authHandler.Logout)

		authorized.POST("/discussions", discussionHandler.Create)
		authorized.POST("/discussions/:id/vote", voteHandler.VoteDiscussion)
		authorized.POST("/comments", commentHandler.Create)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/comments/:id/vote", voteHandler.VoteComment)

		authorized.POST("/moderation/flags", moderationHandler.Flag)

		authorized.GET("/users/:id/bookmarks", bookmarkHandler.ListForUser)
		authorized.POST("/bookmarks", bookmarkHandler.Add)
		authorized.DELETE("/bookmarks/:id", bookmarkHandler.Remove)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
	}

	// 运营路由 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyRequired(d.AdminKey))
	{
		admin.GET("/moderation/flags", adminHandler.ListFlags)
		admin.PATCH("/moderation/flags/:id", adminHandler.ReviewFlag)
		admin.PATCH("/discussions/:id", adminHandler.UpdateDiscussion)
	}
	api.POST("/ingredients", middleware.AdminKeyRequired(d.AdminKey), ingredientHandler.Create)
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
