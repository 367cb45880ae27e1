package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authpkg "github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/middleware"
	"github.com/shortlyapp/shortly/internal/service"
)

// RouterConfig carries everything the route table needs.
type RouterConfig struct {
	UserService  service.UserService
	LinkService  service.LinkService
	OAuthService service.OAuthService
	Tokens       *authpkg.TokenManager
	Google       authpkg.Provider
	GitHub       authpkg.Provider
	ClientURL    string
	CSRF         middleware.CSRFConfig
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	logger := cfg.Logger
	router.Use(func(c *gin.Context) {
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	router.Use(middleware.CSRF(cfg.CSRF))

	userHandler := NewUserHandler(cfg.UserService, logger)
	linkHandler := NewLinkHandler(cfg.LinkService, logger)
	oauthHandler := NewOAuthHandler(cfg.OAuthService, cfg.ClientURL, logger)
	requireAuth := middleware.RequireAuth(cfg.Tokens)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/csrf-token", middleware.CSRFTokenHandler(cfg.CSRF))

	users := router.Group("/auth/users")
	{
		users.POST("", userHandler.Register)
		users.POST("/login", userHandler.Login)
		users.GET("/logout", requireAuth, userHandler.Logout)

		users.GET("/google", oauthHandler.Begin(cfg.Google))
		users.GET("/google/callback", oauthHandler.Callback(cfg.Google))
		users.GET("/github", oauthHandler.Begin(cfg.GitHub))
		users.GET("/github/callback", oauthHandler.Callback(cfg.GitHub))

		users.GET("", requireAuth, userHandler.GetAll)
		users.GET("/:id", requireAuth, userHandler.GetByID)
		users.PUT("/:id", requireAuth, userHandler.Update)
		users.DELETE("/:id", requireAuth, userHandler.Delete)
	}

	urls := router.Group("/urls")
	{
		urls.POST("/shorten", requireAuth, linkHandler.Shorten)
		urls.GET("", requireAuth, linkHandler.List)
		urls.GET("/stats/:short_code", requireAuth, linkHandler.Stats)

		// Public resolution; everything else on /urls is owner-scoped.
		urls.GET("/:short_code", linkHandler.Resolve)
		urls.PUT("/:short_code", requireAuth, linkHandler.Update)
		urls.PATCH("/:short_code", requireAuth, linkHandler.Update)
		urls.DELETE("/:short_code", requireAuth, linkHandler.Delete)
	}

	return router
}
