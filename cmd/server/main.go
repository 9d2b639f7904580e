package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/scamlens/scamlens/internal/cache"
	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/database"
	"github.com/scamlens/scamlens/internal/engine"
	"github.com/scamlens/scamlens/internal/errors"
	"github.com/scamlens/scamlens/internal/heuristics"
	"github.com/scamlens/scamlens/internal/monitoring"
	"github.com/scamlens/scamlens/internal/preferences"
	"github.com/scamlens/scamlens/internal/ratelimit"
	"github.com/scamlens/scamlens/internal/types"
)

const version = "1.0.0"

// app bundles the services the HTTP layer needs. Everything is constructed in
// main and injected, so router tests can assemble an app over in-memory
// backends.
type app struct {
	engine  *engine.Engine
	prefs   *preferences.Store
	repo    *database.Repository
	db      *database.DB
	cache   *cache.Cache
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	limiter *ratelimit.RateLimiter
	redis   *ratelimit.RedisClient
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)

	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	cat := catalog.Default()
	prefsStore := preferences.NewStore(cat, repo)
	registry := heuristics.DefaultRegistry()

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	scoringEngine := engine.New(prefsStore, registry, appMetrics)

	// Redis is optional; the limiter degrades to in-memory token buckets
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis initialization failed, continuing with fallback", "error", err)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	appCache := cache.NewCache(15 * time.Minute)

	a := &app{
		engine:  scoringEngine,
		prefs:   prefsStore,
		repo:    repo,
		db:      db,
		cache:   appCache,
		metrics: appMetrics,
		logger:  appLogger,
		limiter: limiter,
		redis:   redisClient,
	}

	r := setupRouter(a)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupRouter assembles the full middleware chain and route table.
func setupRouter(a *app) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	if a.limiter != nil {
		r.Use(a.limiter.IPRateLimitMiddleware())
		r.Use(a.limiter.AnalyzeRateLimitMiddleware())
	}

	r.Use(a.cache.Middleware(a.metrics))

	r.GET("/health", a.handleHealth)
	r.POST("/analyze", a.handleAnalyze)

	r.GET("/preferences/:userID", a.handleGetPreferences)
	r.PATCH("/preferences/:userID/heuristics/:heuristicID", a.handleUpdateHeuristic)
	r.PUT("/preferences/:userID/threshold", a.handleUpdateThreshold)
	r.POST("/preferences/:userID/reset", a.handleResetPreferences)

	r.GET("/analyses/:userID", a.handleRecentAnalyses)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.metrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.cache.Stats())
	})

	r.GET("/ratelimit/stats", func(c *gin.Context) {
		if a.limiter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiting not configured"})
			return
		}
		c.JSON(http.StatusOK, a.limiter.GetStats())
	})

	r.POST("/ratelimit/invalidate/:ip", func(c *gin.Context) {
		if a.limiter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiting not configured"})
			return
		}
		ip := c.Param("ip")
		if err := a.limiter.InvalidateIP(c.Request.Context(), ip); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "rate limits reset", "ip": ip})
	})

	r.GET("/pools/database", func(c *gin.Context) {
		if a.db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": a.db.GetPoolStats(),
		})
	})

	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	return r
}

func (a *app) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
		"metrics":   a.metrics.GetStats(),
	}

	if a.redis != nil {
		health["redis_enabled"] = a.redis.IsEnabled()
	}

	c.JSON(http.StatusOK, health)
}

func (a *app) handleAnalyze(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	var req types.AnalyzeRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid analyze request: " + err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if req.Listing.Title == "" && req.Listing.Description == "" && req.Listing.Price == 0 {
		appErr := errors.NewValidationError("listing must carry at least a title, description or price")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	start := time.Now()

	result, err := a.engine.Analyze(ctx, &req.Listing, req.UserID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = preferences.DefaultUserID
	}

	a.logger.AnalysisLogger(userID, result.Probability, string(result.OverallRiskLevel),
		len(result.DetailedResults), time.Since(start), false)

	// Persist history without blocking the response
	if a.repo != nil {
		rec := database.NewAnalysisRecord(userID, req.Listing.Title,
			result.Probability, string(result.OverallRiskLevel), result.RiskFactors)
		go func() {
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer saveCancel()
			if err := a.repo.SaveAnalysis(saveCtx, rec); err != nil {
				slog.Error("Failed to save analysis history", "error", err, "user_id", userID)
			}
		}()
	}

	c.JSON(http.StatusOK, result)
}

func (a *app) handleGetPreferences(c *gin.Context) {
	userID := c.Param("userID")

	prefs, err := a.prefs.GetUserPreferences(c.Request.Context(), userID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (a *app) handleUpdateHeuristic(c *gin.Context) {
	userID := c.Param("userID")
	heuristicID := c.Param("heuristicID")

	var update preferences.HeuristicUpdate
	if err := c.BindJSON(&update); err != nil {
		appErr := errors.NewValidationError("invalid heuristic update: " + err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	prefs, err := a.prefs.UpdateHeuristic(c.Request.Context(), userID, heuristicID, update)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.invalidateCachedAnalyses(userID)

	c.JSON(http.StatusOK, prefs)
}

func (a *app) handleUpdateThreshold(c *gin.Context) {
	userID := c.Param("userID")

	var req types.ThresholdRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid threshold request: " + err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	prefs, err := a.prefs.UpdateGlobalThreshold(c.Request.Context(), userID, req.Threshold)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.invalidateCachedAnalyses(userID)

	c.JSON(http.StatusOK, prefs)
}

func (a *app) handleResetPreferences(c *gin.Context) {
	userID := c.Param("userID")

	prefs, err := a.prefs.ResetToDefaults(c.Request.Context(), userID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.invalidateCachedAnalyses(userID)

	c.JSON(http.StatusOK, prefs)
}

func (a *app) handleRecentAnalyses(c *gin.Context) {
	userID := c.Param("userID")

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if a.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis history not configured"})
		return
	}

	records, err := a.repo.RecentAnalyses(c.Request.Context(), userID, limit)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"analyses": records,
		"count":    len(records),
	})
}

// invalidateCachedAnalyses drops cached anonymous analyze responses when the
// default profile changes, since those responses were scored against it.
func (a *app) invalidateCachedAnalyses(userID string) {
	if userID == preferences.DefaultUserID {
		a.cache.Clear()
		slog.Info("Cleared analyze cache after default profile change")
	}
}

// Helper function for environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
