package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Metrics   *service.MetricsService
	KPI       *service.KPIRegistry
	Analysis  *service.AnalysisService
	Decisions *service.DecisionService
	Cycles    *service.CycleService
	Reports   *service.ReportService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Record a metric
// @Description Store one campaign measurement and check it against its KPI target
// @Tags metrics
// @Accept json
// @Produce json
// @Param metric body models.Metric true "metric"
// @Success 201 {object} models.Metric
// @Router /api/metrics [post]
func (h *Handler) RecordMetric(c *gin.Context) {
	var m models.Metric
	if err := c.ShouldBindJSON(&m); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	stored, err := h.Metrics.Record(c.Request.Context(), m)
	if err != nil {
		h.writeServiceError(c, err, "failed to record metric")
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// @Summary Record a batch of metrics
// @Tags metrics
// @Accept json
// @Produce json
// @Success 201 {object} map[string]int
// @Router /api/metrics/batch [post]
func (h *Handler) RecordMetricBatch(c *gin.Context) {
	var metrics []models.Metric
	if err := c.ShouldBindJSON(&metrics); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	n, err := h.Metrics.RecordBatch(c.Request.Context(), metrics)
	if err != nil {
		h.writeServiceError(c, err, "failed to record metric batch")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recorded": n})
}

// @Summary Query metrics
// @Tags metrics
// @Produce json
// @Param name query string false "metric name"
// @Param days query int false "window in days" default(30)
// @Param limit query int false "max rows" default(500)
// @Success 200 {array} models.Metric
// @Router /api/metrics [get]
func (h *Handler) QueryMetrics(c *gin.Context) {
	days := parseIntDefault(c.Query("days"), 30)
	limit := parseIntDefault(c.Query("limit"), 500)
	since := time.Now().UTC().AddDate(0, 0, -days)

	metrics, err := h.Store.QueryMetrics(c.Request.Context(), c.Query("name"), since, limit)
	if err != nil {
		h.writeServiceError(c, err, "failed to query metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) LatestMetrics(c *gin.Context) {
	days := parseIntDefault(c.Query("days"), 30)
	since := time.Now().UTC().AddDate(0, 0, -days)

	latest, err := h.Store.LatestValues(c.Request.Context(), since)
	if err != nil {
		h.writeServiceError(c, err, "failed to load latest metrics")
		return
	}
	c.JSON(http.StatusOK, latest)
}

// @Summary Set a KPI target
// @Tags targets
// @Accept json
// @Produce json
// @Param target body models.KPITarget true "target"
// @Success 200 {object} models.KPITarget
// @Router /api/targets [put]
func (h *Handler) SetKPITarget(c *gin.Context) {
	var t models.KPITarget
	if err := c.ShouldBindJSON(&t); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	if err := h.Validator.Struct(t); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if err := h.KPI.SetTarget(c.Request.Context(), t); err != nil {
		h.writeServiceError(c, err, "failed to set kpi target")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) ListKPITargets(c *gin.Context) {
	c.JSON(http.StatusOK, h.KPI.AllTargets())
}

func (h *Handler) ListAlerts(c *gin.Context) {
	includeResolved := c.Query("include_resolved") == "true"
	limit := parseIntDefault(c.Query("limit"), 100)

	alerts, err := h.Store.ListAlerts(c.Request.Context(), includeResolved, limit)
	if err != nil {
		h.writeServiceError(c, err, "failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_ID", "Alert id must be an integer", nil)
		return
	}
	if err := h.Store.ResolveAlert(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err, "failed to resolve alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": id})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(c *gin.Context, err error, logMsg string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error(), gin.H{"field": vErr.Field})
	case errors.Is(err, db.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	default:
		h.Logger.Error().Err(err).Msg(logMsg)
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
