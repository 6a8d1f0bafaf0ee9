package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/db"
	apihttp "taskboard/internal/http"
	"taskboard/internal/live"
	"taskboard/internal/oauth"
	"taskboard/internal/repository"
	"taskboard/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	taskRepo := repository.NewPgTaskRepository(pool)

	hub := live.NewHub(logger)

	// Con redis configurado, las notificaciones cruzan instancias.
	var notifier service.ChangeNotifier = hub
	var bridge *live.RedisBridge
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			bridge = live.NewRedisBridge(logger, redisClient, hub)
			bridge.Start(ctx)
			notifier = bridge
		}
		cancel()
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	userSvc := service.NewUserService(logger, userRepo)
	taskSvc := service.NewTaskService(logger, taskRepo, notifier)

	var googleProvider *oauth.GoogleProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleProvider = oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthCallbackURL,
		})
	} else {
		logger.Warn("google oauth not configured")
	}

	authHandler := apihttp.NewAuthHandler(logger, userSvc, tokenSvc, googleProvider, cfg.ClientURL)
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	taskHandler := apihttp.NewTaskHandler(logger, taskSvc)
	wsHandler := apihttp.NewWSHandler(logger, tokenSvc, hub, cfg.ClientURL)
	router := apihttp.NewRouter(logger, cfg.ClientURL, tokenSvc, authHandler, userHandler, taskHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if bridge != nil {
		bridge.Close()
	}
	hub.Close()
}
