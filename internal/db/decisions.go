package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

// SaveRecommendations upserts each recommendation by its deterministic id, so
// re-running analysis on the same condition replaces rows instead of
// duplicating them. The whole set lands in one transaction.
func (s *Store) SaveRecommendations(ctx context.Context, recs []models.Recommendation) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, r := range recs {
			if err := upsertRecommendation(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertRecommendation(ctx context.Context, tx pgx.Tx, r models.Recommendation) error {
	resources, err := json.Marshal(sliceOrEmpty(r.RequiredResources))
	if err != nil {
		return err
	}
	successMetrics, err := json.Marshal(sliceOrEmpty(r.SuccessMetrics))
	if err != nil {
		return err
	}
	risks, err := json.Marshal(sliceOrEmpty(r.RiskFactors))
	if err != nil {
		return err
	}
	supporting, err := json.Marshal(mapOrEmpty(r.SupportingData))
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO recommendations
			(id, title, description, decision_type, priority, estimated_impact, confidence_level,
			 implementation_effort, implementation_timeline, required_resources, success_metrics,
			 risk_factors, supporting_data, priority_score, category, created_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			decision_type = EXCLUDED.decision_type,
			priority = EXCLUDED.priority,
			estimated_impact = EXCLUDED.estimated_impact,
			confidence_level = EXCLUDED.confidence_level,
			implementation_effort = EXCLUDED.implementation_effort,
			implementation_timeline = EXCLUDED.implementation_timeline,
			required_resources = EXCLUDED.required_resources,
			success_metrics = EXCLUDED.success_metrics,
			risk_factors = EXCLUDED.risk_factors,
			supporting_data = EXCLUDED.supporting_data,
			priority_score = EXCLUDED.priority_score,
			category = EXCLUDED.category,
			created_at = EXCLUDED.created_at,
			created_by = EXCLUDED.created_by
	`, r.ID, r.Title, r.Description, r.DecisionType, r.Priority, r.EstimatedImpact, r.ConfidenceLevel,
		r.ImplementationEffort, r.ImplementationTimeline, resources, successMetrics,
		risks, supporting, r.PriorityScore, r.Category, r.CreatedAt, r.CreatedBy)
	return err
}

const recommendationColumns = `id, title, description, decision_type, priority, estimated_impact,
	confidence_level, implementation_effort, implementation_timeline, required_resources,
	success_metrics, risk_factors, supporting_data, priority_score, category, created_at, created_by`

func (s *Store) GetRecommendation(ctx context.Context, id string) (models.Recommendation, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+recommendationColumns+` FROM recommendations WHERE id = $1`, id)
	rec, err := scanRecommendation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Recommendation{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) ListRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations ORDER BY priority_score DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecommendations(rows)
}

// PendingRecommendations lists recommendations with no decision yet, or whose
// latest decision is literally "pending", ordered by estimated impact.
func (s *Store) PendingRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+recommendationColumns+`
		FROM recommendations r
		LEFT JOIN LATERAL (
			SELECT decision FROM decisions d
			WHERE d.recommendation_id = r.id
			ORDER BY d.decision_date DESC, d.id DESC
			LIMIT 1
		) latest ON TRUE
		WHERE latest.decision IS NULL OR latest.decision = 'pending'
		ORDER BY r.estimated_impact DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecommendations(rows)
}

func (s *Store) CountRecommendationRows(ctx context.Context, id string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM recommendations WHERE id = $1`, id).Scan(&n)
	return n, err
}

func collectRecommendations(rows pgx.Rows) ([]models.Recommendation, error) {
	var out []models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecommendation(row pgx.Row) (models.Recommendation, error) {
	var r models.Recommendation
	var resources, successMetrics, risks, supporting []byte
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.DecisionType, &r.Priority, &r.EstimatedImpact,
		&r.ConfidenceLevel, &r.ImplementationEffort, &r.ImplementationTimeline, &resources,
		&successMetrics, &risks, &supporting, &r.PriorityScore, &r.Category, &r.CreatedAt, &r.CreatedBy)
	if err != nil {
		return models.Recommendation{}, err
	}
	_ = json.Unmarshal(resources, &r.RequiredResources)
	_ = json.Unmarshal(successMetrics, &r.SuccessMetrics)
	_ = json.Unmarshal(risks, &r.RiskFactors)
	_ = json.Unmarshal(supporting, &r.SupportingData)
	return r, nil
}

func (s *Store) InsertDecision(ctx context.Context, d models.Decision) (int64, error) {
	team, err := json.Marshal(sliceOrEmpty(d.AssignedTeam))
	if err != nil {
		return 0, err
	}
	criteria, err := json.Marshal(sliceOrEmpty(d.SuccessCriteria))
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO decisions
			(recommendation_id, decision, decision_rationale, approved_budget, assigned_team,
			 target_completion, success_criteria, decision_maker, decision_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, d.RecommendationID, d.Decision, d.DecisionRationale, d.ApprovedBudget, team,
		d.TargetCompletion, criteria, d.DecisionMaker, d.DecisionDate, d.Status).Scan(&id)
	return id, err
}

func (s *Store) GetDecision(ctx context.Context, id int64) (models.Decision, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, recommendation_id, decision, decision_rationale, approved_budget, assigned_team,
			target_completion, success_criteria, decision_maker, decision_date, status,
			actual_impact, lessons_learned
		FROM decisions WHERE id = $1
	`, id)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Decision{}, ErrNotFound
	}
	return d, err
}

func (s *Store) UpdateDecisionStatus(ctx context.Context, id int64, status models.DecisionStatus) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE decisions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateDecisionOutcome(ctx context.Context, id int64, actualImpact *float64, lessons *string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE decisions
		SET actual_impact = COALESCE($1, actual_impact),
			lessons_learned = COALESCE($2, lessons_learned)
		WHERE id = $3
	`, actualImpact, lessons, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecisionSummary is a decision joined with the title of the recommendation
// it disposes, for reporting.
type DecisionSummary struct {
	models.Decision
	RecommendationTitle string `json:"recommendation_title"`
}

func (s *Store) RecentDecisions(ctx context.Context, since time.Time) ([]DecisionSummary, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT d.id, d.recommendation_id, d.decision, d.decision_rationale, d.approved_budget,
			d.assigned_team, d.target_completion, d.success_criteria, d.decision_maker,
			d.decision_date, d.status, d.actual_impact, d.lessons_learned, r.title
		FROM decisions d
		JOIN recommendations r ON r.id = d.recommendation_id
		WHERE d.decision_date >= $1
		ORDER BY d.decision_date DESC, d.id DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionSummary
	for rows.Next() {
		var ds DecisionSummary
		var team, criteria []byte
		if err := rows.Scan(&ds.ID, &ds.RecommendationID, &ds.Decision.Decision, &ds.DecisionRationale,
			&ds.ApprovedBudget, &team, &ds.TargetCompletion, &criteria, &ds.DecisionMaker,
			&ds.DecisionDate, &ds.Status, &ds.ActualImpact, &ds.LessonsLearned, &ds.RecommendationTitle); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(team, &ds.AssignedTeam)
		_ = json.Unmarshal(criteria, &ds.SuccessCriteria)
		out = append(out, ds)
	}
	return out, rows.Err()
}

// BuildTask is an approved decision joined with its recommendation, the unit
// of work the build phase implements.
type BuildTask struct {
	RecommendationID string   `json:"recommendation_id"`
	DecisionID       int64    `json:"decision_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Timeline         int      `json:"timeline_days"`
	Resources        []string `json:"required_resources"`
	Budget           float64  `json:"approved_budget"`
	Team             []string `json:"assigned_team"`
}

func (s *Store) ApprovedBuildTasks(ctx context.Context, since time.Time) ([]BuildTask, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT r.id, d.id, r.title, r.description, r.implementation_timeline,
			r.required_resources, d.approved_budget, d.assigned_team
		FROM recommendations r
		JOIN decisions d ON d.recommendation_id = r.id
		WHERE d.decision = 'approve' AND d.status = 'approved' AND r.created_at >= $1
		ORDER BY d.decision_date DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildTask
	for rows.Next() {
		var t BuildTask
		var resources, team []byte
		if err := rows.Scan(&t.RecommendationID, &t.DecisionID, &t.Title, &t.Description, &t.Timeline,
			&resources, &t.Budget, &team); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(resources, &t.Resources)
		_ = json.Unmarshal(team, &t.Team)
		out = append(out, t)
	}
	return out, rows.Err()
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mapOrEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func scanDecision(row pgx.Row) (models.Decision, error) {
	var d models.Decision
	var team, criteria []byte
	err := row.Scan(&d.ID, &d.RecommendationID, &d.Decision, &d.DecisionRationale, &d.ApprovedBudget,
		&team, &d.TargetCompletion, &criteria, &d.DecisionMaker, &d.DecisionDate, &d.Status,
		&d.ActualImpact, &d.LessonsLearned)
	if err != nil {
		return models.Decision{}, err
	}
	_ = json.Unmarshal(team, &d.AssignedTeam)
	_ = json.Unmarshal(criteria, &d.SuccessCriteria)
	return d, nil
}
