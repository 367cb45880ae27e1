package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/config"
	"github.com/shortlyapp/shortly/internal/handler"
	"github.com/shortlyapp/shortly/internal/middleware"
	"github.com/shortlyapp/shortly/internal/repository"
	"github.com/shortlyapp/shortly/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Postgres
	if err := repository.RunMigrations(cfg.DB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	sessionRepo := repository.NewSessionRepository(redis)

	// Auth components, constructed once and injected
	tokens := auth.NewTokenManager(cfg.JWT.Secret)
	google := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.OAuth.Google.ClientID,
		ClientSecret: cfg.OAuth.Google.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectBaseURL + "/auth/users/google/callback",
	})
	github := auth.NewGitHubProvider(auth.GitHubConfig{
		ClientID:     cfg.OAuth.GitHub.ClientID,
		ClientSecret: cfg.OAuth.GitHub.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectBaseURL + "/auth/users/github/callback",
	})

	// Services
	userService := service.NewUserService(userRepo, tokens, logger)
	linkService := service.NewLinkService(linkRepo, logger)
	oauthService := service.NewOAuthService(userRepo, sessionRepo, tokens, logger)

	router := handler.NewRouter(handler.RouterConfig{
		UserService:  userService,
		LinkService:  linkService,
		OAuthService: oauthService,
		Tokens:       tokens,
		Google:       google,
		GitHub:       github,
		ClientURL:    cfg.App.ClientURL,
		CSRF: middleware.CSRFConfig{
			Enforce:      cfg.IsProduction(),
			CookieSecure: cfg.IsProduction(),
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
