package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/mybenefitsvideos/campaign-backend/internal/config"
	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/http/handlers"
	"github.com/mybenefitsvideos/campaign-backend/internal/http/middleware"
	"github.com/mybenefitsvideos/campaign-backend/internal/service"

	_ "github.com/mybenefitsvideos/campaign-backend/docs"
)

// Services groups everything the HTTP layer delegates to.
type Services struct {
	Metrics   *service.MetricsService
	KPI       *service.KPIRegistry
	Analysis  *service.AnalysisService
	Decisions *service.DecisionService
	Cycles    *service.CycleService
	Reports   *service.ReportService
}

func Router(cfg config.Config, store *db.Store, svc Services, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Metrics:   svc.Metrics,
		KPI:       svc.KPI,
		Analysis:  svc.Analysis,
		Decisions: svc.Decisions,
		Cycles:    svc.Cycles,
		Reports:   svc.Reports,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/metrics", h.QueryMetrics)
		api.GET("/metrics/latest", h.LatestMetrics)
		api.GET("/targets", h.ListKPITargets)
		api.GET("/alerts", h.ListAlerts)
		api.GET("/recommendations", h.ListRecommendations)
		api.GET("/recommendations/pending", h.PendingRecommendations)
		api.GET("/decisions", h.ListDecisions)
		api.GET("/cycle", h.CycleStatus)
		api.GET("/build/tasks", h.BuildTasks)
		api.GET("/reports/performance", h.PerformanceReport)
		api.GET("/reports/decisions", h.DecisionReport)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/metrics", h.RecordMetric)
		admin.POST("/metrics/batch", h.RecordMetricBatch)
		admin.PUT("/targets", h.SetKPITarget)
		admin.POST("/alerts/:id/resolve", h.ResolveAlert)
		admin.POST("/analysis/run", h.RunAnalysis)
		admin.POST("/recommendations/:id/decisions", h.RecordDecision)
		admin.POST("/decisions/:id/status", h.UpdateDecisionStatus)
		admin.POST("/decisions/:id/outcome", h.RecordDecisionOutcome)
		admin.POST("/cycle/start", h.StartCycle)
		admin.POST("/cycle/measure", h.AdvanceToMeasure)
		admin.POST("/cycle/analyze", h.AdvanceToAnalyze)
		admin.POST("/cycle/complete", h.CompleteCycle)
		admin.POST("/proposals", h.CreateProposal)
		admin.PATCH("/proposals/:id", h.UpdateProposal)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
