package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/service"
)

// RunAnalysis regenerates recommendations from the current metric window
// without touching the cycle state machine.
func (h *Handler) RunAnalysis(c *gin.Context) {
	recs, err := h.Analysis.Run(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "analysis run failed")
		return
	}
	if err := h.Store.SaveRecommendations(c.Request.Context(), recs); err != nil {
		h.writeServiceError(c, err, "failed to save recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) ListRecommendations(c *gin.Context) {
	recs, err := h.Store.ListRecommendations(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to list recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) PendingRecommendations(c *gin.Context) {
	recs, err := h.Decisions.Pending(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to list pending recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

// @Summary Record a decision
// @Description Record a verdict on one recommendation
// @Tags decisions
// @Accept json
// @Produce json
// @Param id path string true "recommendation id"
// @Param decision body service.DecisionRequest true "decision"
// @Success 201 {object} models.Decision
// @Router /api/recommendations/{id}/decisions [post]
func (h *Handler) RecordDecision(c *gin.Context) {
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	req.RecommendationID = c.Param("id")

	d, err := h.Decisions.Record(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err, "failed to record decision")
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDecisions(c *gin.Context) {
	days := parseIntDefault(c.Query("days"), 30)
	decisions, err := h.Decisions.Recent(c.Request.Context(), days)
	if err != nil {
		h.writeServiceError(c, err, "failed to list decisions")
		return
	}
	c.JSON(http.StatusOK, decisions)
}

type statusUpdateRequest struct {
	Status models.DecisionStatus `json:"status" binding:"required"`
}

// @Summary Advance a decision's execution status
// @Tags decisions
// @Accept json
// @Produce json
// @Param id path int true "decision id"
// @Success 200 {object} models.Decision
// @Router /api/decisions/{id}/status [post]
func (h *Handler) UpdateDecisionStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_ID", "Decision id must be an integer", nil)
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	d, err := h.Decisions.AdvanceStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(c, err, "failed to update decision status")
		return
	}
	c.JSON(http.StatusOK, d)
}

type outcomeRequest struct {
	ActualImpact   *float64 `json:"actual_impact"`
	LessonsLearned *string  `json:"lessons_learned"`
}

func (h *Handler) RecordDecisionOutcome(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_ID", "Decision id must be an integer", nil)
		return
	}
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	if err := h.Decisions.RecordOutcome(c.Request.Context(), id, req.ActualImpact, req.LessonsLearned); err != nil {
		h.writeServiceError(c, err, "failed to record decision outcome")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) CreateProposal(c *gin.Context) {
	var p models.Proposal
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	if p.ClientName == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "client_name must not be empty", gin.H{"field": "client_name"})
		return
	}
	id, err := h.Store.InsertProposal(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err, "failed to create proposal")
		return
	}
	p.ID = id
	c.JSON(http.StatusCreated, p)
}

type proposalUpdateRequest struct {
	ProposalOpened   *bool `json:"proposal_opened"`
	ResponseReceived *bool `json:"response_received"`
	ClosedWon        *bool `json:"closed_won"`
}

func (h *Handler) UpdateProposal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_ID", "Proposal id must be an integer", nil)
		return
	}
	var req proposalUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid request body", err.Error())
		return
	}
	if err := h.Store.UpdateProposalStatus(c.Request.Context(), id, req.ProposalOpened, req.ResponseReceived, req.ClosedWon); err != nil {
		h.writeServiceError(c, err, "failed to update proposal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) PerformanceReport(c *gin.Context) {
	days := parseIntDefault(c.Query("days"), 7)
	report, err := h.Reports.Performance(c.Request.Context(), days)
	if err != nil {
		h.writeServiceError(c, err, "failed to build performance report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *Handler) DecisionReport(c *gin.Context) {
	report, err := h.Reports.Decisions(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to build decision report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
