package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"khrafet/internal/config"
	"khrafet/internal/handler"
	"khrafet/internal/logger"
	"khrafet/internal/middleware"
	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	zap.ReplaceGlobals(log)
	log.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	// --- Story core ---
	completer, err := storygen.NewCompleter(cfg, log)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	if cfg.AIClientType == config.ClientTypeOpenRouter && cfg.AIAPIKey == "" {
		log.Warn("OPENROUTER_API_KEY is not set; generation requests will fail with AI_AUTH")
	}
	generator := storygen.NewGenerator(completer, log)

	store := session.NewMemoryStore(cfg.SessionTTL, cfg.SessionTTL/4)
	sessionService := session.NewService(generator, store, log)
	storyHandler := handler.NewHandler(sessionService, generator, log)

	// --- Rate limit (optional) ---
	var generationMiddleware []gin.HandlerFunc
	if cfg.RateLimitEnabled() {
		redisClient, err := setupRedis(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		limiter := middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, log)
		generationMiddleware = append(generationMiddleware, limiter.Middleware())
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimitRequests),
			zap.Duration("window", cfg.RateLimitWindow),
		)
	} else {
		log.Info("Rate limiting disabled (REDIS_ADDR not set)")
	}

	// --- HTTP ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, log, storyHandler, generationMiddleware...)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}

// newRouter собирает gin.Engine. Prometheus подключается до регистрации роутов:
// gin применяет middleware только к маршрутам, добавленным после Use.
func newRouter(cfg *config.Config, log *zap.Logger, storyHandler *handler.Handler, generation ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg, log)))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ai_client": cfg.AIClientType, "model": cfg.AIModel})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	storyHandler.RegisterRoutes(router, generation...)
	return router
}

func corsConfig(cfg *config.Config, log *zap.Logger) cors.Config {
	corsCfg := cors.DefaultConfig()
	origins := cfg.GetAllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		log.Info("CORS: allowing all origins")
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader, "Retry-After"}
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}

func setupRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}
