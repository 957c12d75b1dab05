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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"sheetdesk/internal/audit"
	"sheetdesk/internal/authz"
	"sheetdesk/internal/config"
	"sheetdesk/internal/database"
	"sheetdesk/internal/handlers"
	"sheetdesk/internal/logger"
	"sheetdesk/internal/middleware"
	"sheetdesk/internal/services"
	"sheetdesk/internal/sheet"
	"sheetdesk/internal/validator"

	_ "sheetdesk/internal/docs" // Import swagger docs
)

// @title           Sheetdesk API
// @version         1.0
// @description     Sheetdesk ingests spreadsheets into per-user datasets and gives capability-gated admins an audited view over users, datasets and platform statistics.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	log := logger.New(os.Getenv("ENV"))
	defer logger.Sync(log)

	if err := run(log); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(log *zap.SugaredLogger) error {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig), log)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Stats cache is optional
	var cache *redis.Client
	if appConfig.RedisURL != "" {
		cache, err = database.ConnectRedis(context.Background(), appConfig.RedisURL)
		if err != nil {
			log.Warnw("stats cache disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	store := services.NewDatasetStore(db)
	statsCache := services.NewStatsCache(cache, appConfig.StatsCacheTTL, log)
	userService := services.NewUserService(db, statsCache)
	fileService := services.NewFileService(store, sheet.NewParser(appConfig.MaxUploadBytes), statsCache, log)
	adminService := services.NewAdminService(db, store, statsCache, log)
	auditService := services.NewAuditService(db)
	statsService := services.NewStatsService(db, statsCache, log)
	recorder := audit.NewRecorder(auditService, log, appConfig.AuditWriteTimeout)
	issuer := middleware.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur)

	// Initialize Gin router
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorHandler(log))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus exposition
	router.GET("/metrics", middleware.APIKeyMiddleware(appConfig.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	// API v1 group
	handlers.Routes{
		Auth:   handlers.NewAuthHandler(userService, issuer, log),
		Files:  handlers.NewFileHandler(fileService, appConfig.MaxUploadBytes, log),
		Admin:  handlers.NewAdminHandler(adminService, auditService, statsService, recorder, log),
		Issuer: issuer,
		Gate:   authz.NewGate(db),
	}.Register(router.Group("/api/v1"))

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Sheetdesk backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Drain audit writes still in flight
	recorder.Wait()

	log.Info("Server stopped gracefully")
	return nil
}
