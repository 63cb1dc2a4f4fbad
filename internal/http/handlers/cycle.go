package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mybenefitsvideos/campaign-backend/internal/service"
)

// @Summary Start an optimization cycle
// @Description Begins a new cycle in the build phase, or returns the one already running
// @Tags cycle
// @Produce json
// @Success 200 {object} models.Cycle
// @Success 201 {object} models.Cycle
// @Router /api/cycle/start [post]
func (h *Handler) StartCycle(c *gin.Context) {
	cycle, created, err := h.Cycles.Start(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to start cycle")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, cycle)
}

// @Summary Advance the cycle into measure
// @Description Collects metrics from all connectors and moves the cycle to the measure phase
// @Tags cycle
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/cycle/measure [post]
func (h *Handler) AdvanceToMeasure(c *gin.Context) {
	cycle, summary, err := h.Cycles.AdvanceToMeasure(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to advance cycle to measure")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycle": cycle, "collection": summary})
}

// @Summary Analyze the measured window
// @Description Runs the analyzers, saves recommendations and moves the cycle to decide
// @Tags cycle
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/cycle/analyze [post]
func (h *Handler) AdvanceToAnalyze(c *gin.Context) {
	cycle, recs, err := h.Cycles.AdvanceToAnalyze(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to advance cycle to analyze")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycle": cycle, "recommendations": recs})
}

func (h *Handler) CompleteCycle(c *gin.Context) {
	cycle, err := h.Cycles.Complete(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to complete cycle")
		return
	}
	c.JSON(http.StatusOK, cycle)
}

func (h *Handler) CycleStatus(c *gin.Context) {
	cycle, err := h.Cycles.Status(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to load cycle status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cycle":          cycle,
		"phase_deadline": h.Cycles.PhaseDeadline(cycle),
		"summary":        service.CycleSummary(cycle),
	})
}

// BuildTasks lists the approved work feeding the next build phase.
func (h *Handler) BuildTasks(c *gin.Context) {
	days := parseIntDefault(c.Query("days"), 90)
	since := time.Now().UTC().AddDate(0, 0, -days)

	tasks, err := h.Store.ApprovedBuildTasks(c.Request.Context(), since)
	if err != nil {
		h.writeServiceError(c, err, "failed to list build tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}
