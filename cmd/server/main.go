package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/edumetrics/maturity-engine/internal/cache"
	"github.com/edumetrics/maturity-engine/internal/config"
	"github.com/edumetrics/maturity-engine/internal/database"
	"github.com/edumetrics/maturity-engine/internal/errors"
	"github.com/edumetrics/maturity-engine/internal/middleware"
	"github.com/edumetrics/maturity-engine/internal/ml"
	"github.com/edumetrics/maturity-engine/internal/ratelimit"
	"github.com/edumetrics/maturity-engine/internal/types"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	if cfg.SeedDemo {
		if err := repo.SeedDemo(context.Background(), time.Now().UnixNano()); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	store := ml.NewStore(cfg.ModelDir)
	trainerCfg := ml.TrainerConfig{
		TestFraction: cfg.TestFraction,
		SplitSeed:    cfg.SplitSeed,
		Forest:       ml.DefaultForestConfig(),
	}
	trainerCfg.Forest.NumTrees = cfg.NumTrees
	trainerCfg.Forest.MaxDepth = cfg.MaxDepth

	trainer := ml.NewTrainer(repo, store, trainerCfg)
	predictor := ml.NewPredictor(repo, store, trainer)
	analyzer := ml.NewTrendAnalyzer(repo)

	router := buildRouter(cfg, repo, store, trainer, predictor, analyzer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
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

func buildRouter(cfg *config.Config, repo *database.Repository, store *ml.Store,
	trainer *ml.Trainer, predictor *ml.Predictor, analyzer *ml.TrendAnalyzer) *gin.Engine {

	router := gin.New()

	router.Use(middleware.RequestLogger())
	router.Use(errors.ErrorHandler())
	router.Use(errors.RecoveryHandler())
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.Default())

	limiter := ratelimit.NewLimiter(cfg.RateLimitPerMin)
	router.Use(limiter.Middleware())

	responseCache := cache.NewCache(cfg.CacheTTL)

	// Swagger documentation routes
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		})
	})

	api := router.Group("/api/v1")

	api.POST("/model/train", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		slog.Info("Training requested", "ip", c.ClientIP())

		result, err := trainer.Train(ctx)
		if err != nil {
			respondCoreError(c, err)
			return
		}

		// Cached status/trend responses are stale after a retrain
		responseCache.Invalidate()

		c.JSON(http.StatusOK, result)
	})

	api.POST("/model/predict", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req types.PredictRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid request body")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		scores := req.IndicatorScores
		if len(scores) == 0 {
			if req.OverallScore == nil {
				appErr := errors.NewValidationError("either indicator_scores or overall_score is required")
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			// Fallback: assume every indicator sits at the overall score
			indicators, err := repo.ListIndicators(ctx)
			if err != nil {
				respondCoreError(c, err)
				return
			}
			scores = make(map[string]float64, len(indicators))
			for _, ind := range indicators {
				scores[ind.Name] = *req.OverallScore
			}
		}

		result, err := predictor.Predict(ctx, scores, req.RecordID)
		if err != nil {
			respondCoreError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	})

	api.GET("/model/status", responseCache.Middleware(), func(c *gin.Context) {
		status, err := ml.ModelStatus(c.Request.Context(), repo, store)
		if err != nil {
			respondCoreError(c, err)
			return
		}

		c.JSON(http.StatusOK, status)
	})

	api.GET("/analysis/trends", responseCache.Middleware(), func(c *gin.Context) {
		var organizationID int64
		if raw := c.Query("organization_id"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				appErr := errors.NewValidationError("organization_id must be a positive integer")
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			organizationID = parsed
		}

		report, err := analyzer.Analyze(c.Request.Context(), organizationID)
		if err != nil {
			respondCoreError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	})

	return router
}

// respondCoreError maps core sentinel errors to the structured error taxonomy
// and writes the response.
func respondCoreError(c *gin.Context, err error) {
	var appErr *errors.AppError

	switch {
	case stderrors.Is(err, ml.ErrInsufficientData):
		appErr = errors.NewInsufficientDataError("insufficient data for this operation", err)
	case stderrors.Is(err, ml.ErrOrderingMismatch):
		appErr = errors.NewOrderingMismatchError("indicator set changed since training; retrain the model", err)
	default:
		appErr = errors.NewStorageError("operation failed", err)
	}

	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}
