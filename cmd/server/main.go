package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	boardapp "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	identityapp "github.com/ShanyuJung/GoalKit-sub000/internal/application/identity"
	presenceapp "github.com/ShanyuJung/GoalKit-sub000/internal/application/presence"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/auth"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/config"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/event"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/logger"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/persistence"
	infrapresence "github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/presence"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/handler"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/middleware"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize Redis connection for presence tracking and cross-instance
	// snapshot fan-out
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))

	// Initialize repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Snapshot fan-out: board mutations publish through Redis so every
	// server instance, including the publishing one, delivers the change
	// to its local stream subscribers via the hub
	snapshotHub := event.NewSnapshotHub()
	broadcaster := event.NewRedisSnapshotBroadcaster(redisClient, event.WithSnapshotLogger(log))
	go func() {
		if err := broadcaster.Subscribe(context.Background(), snapshotHub.Broadcast); err != nil {
			log.Error("Snapshot subscription ended", zap.Error(err))
		}
	}()
	defer func() {
		if err := broadcaster.Close(); err != nil {
			log.Error("Error closing snapshot broadcaster", zap.Error(err))
		}
	}()

	// Presence store backed by Redis with TTL-based expiry
	presenceStore := infrapresence.NewRedisStore(redisClient, cfg.Presence.TTL)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)
	projectService := boardapp.NewProjectService(projectRepo, userRepo, eventBus, broadcaster, cfg.Presence.DragLeaseTTL, log)
	dragService := boardapp.NewDragService(projectRepo, eventBus, broadcaster, cfg.Presence.DragLeaseTTL, log)
	presenceService := presenceapp.NewService(presenceStore, projectRepo, dragService, log)

	// Presence websocket hub
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	presenceHub := handler.NewPresenceHub(log)
	go presenceHub.Run(hubCtx)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Cookie)
	projectHandler := handler.NewProjectHandler(projectService)
	boardHandler := handler.NewBoardHandler(projectService, dragService)
	streamHandler := handler.NewStreamHandler(projectService, snapshotHub,
		handler.WithStreamLogger(log),
		handler.WithStreamHeartbeat(cfg.Stream.HeartbeatInterval),
		handler.WithStreamMaxClients(cfg.Stream.MaxClients),
	)
	defer streamHandler.Stop()
	presenceHandler := handler.NewPresenceHandler(presenceService, presenceHub, cfg.HTTP.CORSAllowOrigins, log)
	systemHandler := handler.NewSystemHandler(db, redisClient, cfg.App.Name, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. JWT - Authenticate API requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Apply JWT authentication middleware to API routes.
	// The credential and health endpoints stay public; logout only clears
	// the refresh cookie so an expired session can still log out.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/auth/logout",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Stricter rate limit for credential endpoints (if enabled)
	var authRateLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRateLimit = middleware.RateLimit(authLimiter)
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}

	// Register route groups
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(&router.SystemRoutes{System: systemHandler}).
		Register(&router.AuthRoutes{Auth: authHandler, RateLimit: authRateLimit}).
		Register(&router.ProjectRoutes{
			Project:  projectHandler,
			Board:    boardHandler,
			Stream:   streamHandler,
			Presence: presenceHandler,
		}).
		Setup()

	// Create HTTP server with config.
	// WriteTimeout must be generous enough for long-lived snapshot
	// streams and presence sockets, or zero to disable.
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
