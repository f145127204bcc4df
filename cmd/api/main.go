package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Batmad01/url-shortener/internal/config"
	"github.com/Batmad01/url-shortener/internal/handler"
	"github.com/Batmad01/url-shortener/internal/logger"
	"github.com/Batmad01/url-shortener/internal/middleware"
	"github.com/Batmad01/url-shortener/internal/repository/postgres"
	redisRepo "github.com/Batmad01/url-shortener/internal/repository/redis"
	"github.com/Batmad01/url-shortener/internal/service"
	"github.com/Batmad01/url-shortener/internal/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Initialize(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.Get()
	log.Info("Starting URL Shortener service",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
	)

	dbPool, err := setupDatabase(cfg)
	if err != nil {
		log.Error("Failed to setup database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient, err := setupRedis(cfg)
	if err != nil {
		log.Error("Failed to setup redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	linkRepo := postgres.NewLinkRepository(dbPool)
	if err := linkRepo.InitSchema(context.Background()); err != nil {
		log.Error("Failed to initialize schema", "error", err)
		os.Exit(1)
	}

	linkCache := redisRepo.NewLinkCache(redisClient)

	linkService := service.NewLinkService(linkRepo, linkCache, cfg.Cache.TTL)

	linkHandler := handler.NewLinkHandler(linkService, cfg.Server.BaseURL)
	healthHandler := handler.NewHealthHandler(dbPool, redisClient)

	router := setupRouter(cfg, linkHandler, healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// the sweeper shares the process lifetime; cancelled on shutdown
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sw := sweeper.New(linkRepo, linkCache, cfg.Sweeper.Interval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sw.Run(sweepCtx)
	}()

	go func() {
		log.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	gracefulShutdown(srv, cfg.Server.ShutdownTimeout, stopSweeper, &wg, log)
}

func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	return pgxpool.NewWithConfig(context.Background(), poolConfig)
}

func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return redisClient, nil
}

func setupRouter(cfg *config.Config, linkHandler *handler.LinkHandler, healthHandler *handler.HealthHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/", healthHandler.Status)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)

	auth := middleware.Auth(cfg.Auth.JWTSecret)

	links := router.Group("/links")
	{
		links.POST("/shorten", auth, linkHandler.Shorten)
		links.POST("/public", linkHandler.ShortenPublic)
		links.GET("/search", linkHandler.Search)
		links.GET("/user/all", auth, linkHandler.ListUserLinks)

		links.GET("/:shortCode", linkHandler.Redirect)
		links.GET("/:shortCode/stats", linkHandler.Stats)
		links.PUT("/:shortCode", auth, linkHandler.Update)
		links.DELETE("/:shortCode", auth, linkHandler.Delete)
	}

	return router
}

func gracefulShutdown(srv *http.Server, timeout time.Duration, stopSweeper context.CancelFunc, wg *sync.WaitGroup, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	stopSweeper()
	wg.Wait()

	log.Info("Graceful shutdown completed")
}
