package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/monitoring"
)

// DecisionService records verdicts against recommendations and tracks their
// execution lifecycle.
type DecisionService struct {
	Store  *db.Store
	Logger zerolog.Logger
}

// DecisionRequest is a verdict on one recommendation.
type DecisionRequest struct {
	RecommendationID string     `json:"recommendation_id"`
	Decision         string     `json:"decision" validate:"required,oneof=approve reject modify defer"`
	Rationale        string     `json:"rationale" validate:"required"`
	ApprovedBudget   float64    `json:"approved_budget"`
	AssignedTeam     []string   `json:"assigned_team"`
	DecisionMaker    string     `json:"decision_maker"`
	TargetCompletion *time.Time `json:"target_completion,omitempty"`
}

func validVerdict(v string) bool {
	switch v {
	case models.VerdictApprove, models.VerdictReject, models.VerdictModify, models.VerdictDefer:
		return true
	}
	return false
}

// DeriveStatus maps a verdict to the decision's initial lifecycle status.
// Modify and defer both park the decision as pending until revisited.
func DeriveStatus(verdict string) models.DecisionStatus {
	switch verdict {
	case models.VerdictApprove:
		return models.StatusApproved
	case models.VerdictReject:
		return models.StatusCancelled
	default:
		return models.StatusPendingApproval
	}
}

// Record validates the request, snapshots the recommendation's success
// metrics as the decision's success criteria and persists the decision.
// Validation happens before any store access.
func (s *DecisionService) Record(ctx context.Context, req DecisionRequest) (models.Decision, error) {
	if req.Rationale == "" {
		return models.Decision{}, &ValidationError{Field: "rationale", Reason: "must not be empty"}
	}
	if !validVerdict(req.Decision) {
		return models.Decision{}, &ValidationError{Field: "decision", Reason: "must be approve, reject, modify or defer"}
	}

	rec, err := s.Store.GetRecommendation(ctx, req.RecommendationID)
	if err != nil {
		return models.Decision{}, err
	}

	now := time.Now().UTC()
	target := now.AddDate(0, 0, 30)
	if req.TargetCompletion != nil {
		target = *req.TargetCompletion
	}

	d := models.Decision{
		RecommendationID:  rec.ID,
		Decision:          req.Decision,
		DecisionRationale: req.Rationale,
		ApprovedBudget:    req.ApprovedBudget,
		AssignedTeam:      req.AssignedTeam,
		TargetCompletion:  target,
		SuccessCriteria:   rec.SuccessMetrics,
		DecisionMaker:     req.DecisionMaker,
		DecisionDate:      now,
		Status:            DeriveStatus(req.Decision),
	}
	id, err := s.Store.InsertDecision(ctx, d)
	if err != nil {
		return models.Decision{}, err
	}
	d.ID = id
	monitoring.DecisionsRecorded.Inc()
	s.Logger.Info().Int64("decision_id", id).Str("recommendation", rec.ID).
		Str("verdict", req.Decision).Msg("decision recorded")
	return d, nil
}

var validStatusTransitions = map[models.DecisionStatus][]models.DecisionStatus{
	models.StatusPendingApproval: {models.StatusApproved, models.StatusCancelled},
	models.StatusApproved:        {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:      {models.StatusCompleted, models.StatusCancelled},
}

func validStatusTransition(from, to models.DecisionStatus) bool {
	for _, s := range validStatusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AdvanceStatus moves a decision through its execution lifecycle. Completed
// and cancelled are terminal.
func (s *DecisionService) AdvanceStatus(ctx context.Context, id int64, to models.DecisionStatus) (models.Decision, error) {
	d, err := s.Store.GetDecision(ctx, id)
	if err != nil {
		return models.Decision{}, err
	}
	if !validStatusTransition(d.Status, to) {
		return models.Decision{}, fmt.Errorf("%w: decision %d cannot move from %s to %s",
			ErrInvalidTransition, id, d.Status, to)
	}
	if err := s.Store.UpdateDecisionStatus(ctx, id, to); err != nil {
		return models.Decision{}, err
	}
	d.Status = to
	return d, nil
}

// RecordOutcome attaches the measured impact and lessons learned after a
// decision has run its course.
func (s *DecisionService) RecordOutcome(ctx context.Context, id int64, actualImpact *float64, lessons *string) error {
	return s.Store.UpdateDecisionOutcome(ctx, id, actualImpact, lessons)
}

// Pending lists recommendations that have no decision yet, or only a pending
// one, ordered by estimated impact.
func (s *DecisionService) Pending(ctx context.Context) ([]models.Recommendation, error) {
	return s.Store.PendingRecommendations(ctx)
}

func (s *DecisionService) Recent(ctx context.Context, sinceDays int) ([]db.DecisionSummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -sinceDays)
	return s.Store.RecentDecisions(ctx, since)
}
