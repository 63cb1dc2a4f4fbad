package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup references a row that does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS metrics (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		kind TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'manual',
		dimensions JSONB NOT NULL DEFAULT '{}',
		campaign_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS metrics_name_ts ON metrics (name, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS kpi_targets (
		metric_name TEXT PRIMARY KEY,
		target_value DOUBLE PRECISION NOT NULL,
		target_period TEXT NOT NULL,
		alert_threshold DOUBLE PRECISION NOT NULL,
		improvement_goal DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id BIGSERIAL PRIMARY KEY,
		alert_type TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		current_value DOUBLE PRECISION NOT NULL,
		target_value DOUBLE PRECISION NOT NULL,
		threshold_breached DOUBLE PRECISION NOT NULL,
		message TEXT NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		decision_type TEXT NOT NULL,
		priority INT NOT NULL,
		estimated_impact DOUBLE PRECISION NOT NULL,
		confidence_level DOUBLE PRECISION NOT NULL,
		implementation_effort TEXT NOT NULL,
		implementation_timeline INT NOT NULL,
		required_resources JSONB NOT NULL DEFAULT '[]',
		success_metrics JSONB NOT NULL DEFAULT '[]',
		risk_factors JSONB NOT NULL DEFAULT '[]',
		supporting_data JSONB NOT NULL DEFAULT '{}',
		priority_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		created_by TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		id BIGSERIAL PRIMARY KEY,
		recommendation_id TEXT NOT NULL REFERENCES recommendations (id),
		decision TEXT NOT NULL,
		decision_rationale TEXT NOT NULL,
		approved_budget DOUBLE PRECISION NOT NULL DEFAULT 0,
		assigned_team JSONB NOT NULL DEFAULT '[]',
		target_completion TIMESTAMPTZ NOT NULL,
		success_criteria JSONB NOT NULL DEFAULT '[]',
		decision_maker TEXT NOT NULL,
		decision_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		actual_impact DOUBLE PRECISION,
		lessons_learned TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		current_phase_start TIMESTAMPTZ NOT NULL,
		expected_completion TIMESTAMPTZ NOT NULL,
		metrics_collected INT NOT NULL DEFAULT 0,
		decisions_pending INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	)`,
	// At most one active cycle, enforced in the store so the invariant
	// survives process restarts.
	`CREATE UNIQUE INDEX IF NOT EXISTS cycles_single_active ON cycles (status) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id BIGSERIAL PRIMARY KEY,
		client_name TEXT NOT NULL,
		package_type TEXT NOT NULL,
		total_value DOUBLE PRECISION NOT NULL,
		roi_projection DOUBLE PRECISION NOT NULL,
		proposal_opened BOOLEAN NOT NULL DEFAULT FALSE,
		response_received BOOLEAN NOT NULL DEFAULT FALSE,
		closed_won BOOLEAN NOT NULL DEFAULT FALSE,
		optimization_version TEXT NOT NULL DEFAULT 'v1.0',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
