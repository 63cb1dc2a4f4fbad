package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

const cycleColumns = `id, phase, start_date, current_phase_start, expected_completion,
	metrics_collected, decisions_pending, status`

// ActiveCycle returns the single active cycle, or ErrNotFound when none is
// running. Uniqueness is guaranteed by the cycles_single_active index.
func (s *Store) ActiveCycle(ctx context.Context) (models.Cycle, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE status = 'active'`)
	c, err := scanCycle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cycle{}, ErrNotFound
	}
	return c, err
}

func (s *Store) GetCycle(ctx context.Context, id string) (models.Cycle, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE id = $1`, id)
	c, err := scanCycle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cycle{}, ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCycle(ctx context.Context, c models.Cycle) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cycles (id, phase, start_date, current_phase_start, expected_completion,
			metrics_collected, decisions_pending, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.Phase, c.StartDate, c.CurrentPhaseStart, c.ExpectedCompletion,
		c.MetricsCollected, c.DecisionsPending, c.Status)
	return err
}

// UpdateCycle writes the cycle's mutable fields. The update only applies
// while the row is still active, so a transition carrying a stale copy of a
// finished cycle cannot resurrect it.
func (s *Store) UpdateCycle(ctx context.Context, c models.Cycle) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE cycles
		SET phase = $1, current_phase_start = $2, metrics_collected = $3,
			decisions_pending = $4, status = $5
		WHERE id = $6 AND status = 'active'
	`, c.Phase, c.CurrentPhaseStart, c.MetricsCollected, c.DecisionsPending, c.Status, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+cycleColumns+` FROM cycles ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCycle(row pgx.Row) (models.Cycle, error) {
	var c models.Cycle
	err := row.Scan(&c.ID, &c.Phase, &c.StartDate, &c.CurrentPhaseStart, &c.ExpectedCompletion,
		&c.MetricsCollected, &c.DecisionsPending, &c.Status)
	return c, err
}

func (s *Store) InsertProposal(ctx context.Context, p models.Proposal) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO proposals (client_name, package_type, total_value, roi_projection, optimization_version)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, p.ClientName, p.PackageType, p.TotalValue, p.ROIProjection, p.OptimizationVersion).Scan(&id)
	return id, err
}

// UpdateProposalStatus flips only the lifecycle flags that are provided.
func (s *Store) UpdateProposalStatus(ctx context.Context, id int64, opened, responded, closedWon *bool) error {
	var sets []string
	var args []any
	if opened != nil {
		args = append(args, *opened)
		sets = append(sets, fmt.Sprintf("proposal_opened = $%d", len(args)))
	}
	if responded != nil {
		args = append(args, *responded)
		sets = append(sets, fmt.Sprintf("response_received = $%d", len(args)))
	}
	if closedWon != nil {
		args = append(args, *closedWon)
		sets = append(sets, fmt.Sprintf("closed_won = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE proposals SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ProposalSummary struct {
	Total         int     `json:"total"`
	AverageValue  float64 `json:"average_value"`
	AverageROI    float64 `json:"average_roi"`
	OpenedCount   int     `json:"opened_count"`
	ResponseCount int     `json:"response_count"`
	ClosedCount   int     `json:"closed_count"`
}

func (s *Store) SummarizeProposals(ctx context.Context, since time.Time) (ProposalSummary, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(total_value), 0),
			COALESCE(AVG(roi_projection), 0),
			COUNT(*) FILTER (WHERE proposal_opened),
			COUNT(*) FILTER (WHERE response_received),
			COUNT(*) FILTER (WHERE closed_won)
		FROM proposals
		WHERE created_at >= $1
	`, since)

	var sum ProposalSummary
	err := row.Scan(&sum.Total, &sum.AverageValue, &sum.AverageROI,
		&sum.OpenedCount, &sum.ResponseCount, &sum.ClosedCount)
	return sum, err
}
