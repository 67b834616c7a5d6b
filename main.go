package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salontime-backend/cache"
	"salontime-backend/config"
	"salontime-backend/database"
	"salontime-backend/events"
	"salontime-backend/jobs"
	"salontime-backend/middleware"
	"salontime-backend/obs"
	"salontime-backend/routes"
	"salontime-backend/search"
	"salontime-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		fatal("error loading .env file", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("invalid configuration", err)
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		gin.SetMode(gin.ReleaseMode)
	}
	log := slog.New(handler)
	slog.SetDefault(log)

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		fatal("environment validation failed", err)
	}

	utils.AccessTokenTTL = cfg.AccessTokenTTL
	utils.RefreshTokenTTL = cfg.RefreshTokenTTL
	utils.RegisterBindingValidators()

	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "salontime-backend", cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		fatal("failed to initialise tracing", err)
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}

	if err := database.Migrate(db); err != nil {
		fatal("failed to run migrations", err)
	}
	if err := database.SeedCategories(db); err != nil {
		log.Warn("could not seed service categories", "error", err)
	}
	if err := database.CreateDefaultAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Warn("could not create default admin", "error", err)
	}

	// Redis is optional; without it caching stays in process.
	memStore := cache.NewMemory()
	var store cache.Cache = memStore
	var redisStore *cache.RedisCache
	if cfg.RedisAddr != "" {
		redisStore = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, using in-memory cache", "addr", cfg.RedisAddr, "error", err)
			_ = redisStore.Close()
			redisStore = nil
		} else {
			store = redisStore
			log.Info("redis cache connected", "addr", cfg.RedisAddr)
		}
		cancel()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("amqp unavailable, domain events disabled", "error", err)
		} else {
			publisher = p
			log.Info("amqp publisher connected", "exchange", cfg.AMQPExchange)
		}
	}

	searchService := search.NewService(db, store, cfg.Location(), cfg.SearchCandidateCap, cfg.SearchCacheTTL)
	searchService.Log = log

	scheduler, err := jobs.StartScheduler(jobs.NewTrendingJob(db, store), cfg.TrendingSchedule, log)
	if err != nil {
		fatal("failed to start trending scheduler", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log, 500*time.Millisecond))

	origins := cfg.AllowedOrigins()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:          db,
		Cache:       store,
		Events:      publisher,
		Search:      searchService,
		Location:    cfg.Location(),
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "origins", origins)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	<-scheduler.Stop().Done()
	limiter.Close()
	_ = memStore.Close()

	if err := publisher.Close(); err != nil {
		log.Warn("error closing event publisher", "error", err)
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			log.Warn("error closing redis", "error", err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("error flushing traces", "error", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		} else {
			log.Info("database connection closed")
		}
	}

	log.Info("server exited gracefully")
}
