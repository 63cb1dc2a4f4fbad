package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func (s *Store) InsertMetric(ctx context.Context, m models.Metric) (int64, error) {
	dims, err := json.Marshal(dimsOrEmpty(m.Dimensions))
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO metrics (timestamp, name, value, kind, source, dimensions, campaign_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, m.Timestamp, m.Name, m.Value, m.Kind, m.Source, dims, m.CampaignID).Scan(&id)
	return id, err
}

// InsertMetricBatch appends all metrics in a single transaction: either the
// whole batch lands or none of it does.
func (s *Store) InsertMetricBatch(ctx context.Context, metrics []models.Metric) (int64, error) {
	rows := make([][]any, 0, len(metrics))
	for _, m := range metrics {
		dims, err := json.Marshal(dimsOrEmpty(m.Dimensions))
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{m.Timestamp, m.Name, m.Value, string(m.Kind), m.Source, dims, m.CampaignID})
	}

	var copied int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"metrics"},
			[]string{"timestamp", "name", "value", "kind", "source", "dimensions", "campaign_id"},
			pgx.CopyFromRows(rows))
		copied = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// QueryMetrics returns a timestamp-descending snapshot, optionally filtered by
// exact name and lower time bound. An unknown name yields an empty result,
// not an error.
func (s *Store) QueryMetrics(ctx context.Context, name string, since time.Time, limit int) ([]models.Metric, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	query := `SELECT id, timestamp, name, value, kind, source, dimensions, campaign_id FROM metrics`
	var args []any
	var wheres []string
	if name != "" {
		args = append(args, name)
		wheres = append(wheres, fmt.Sprintf("name = $%d", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since)
		wheres = append(wheres, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT $" + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Metric
	for rows.Next() {
		var m models.Metric
		var dims []byte
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Name, &m.Value, &m.Kind, &m.Source, &dims, &m.CampaignID); err != nil {
			return nil, err
		}
		if len(dims) > 0 {
			_ = json.Unmarshal(dims, &m.Dimensions)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) LatestValue(ctx context.Context, name string) (float64, error) {
	var value float64
	err := s.Pool.QueryRow(ctx,
		`SELECT value FROM metrics WHERE name = $1 ORDER BY timestamp DESC LIMIT 1`, name,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return value, err
}

// LatestValues returns the most recent value per metric name within the
// window. This is the table the analyzers work from.
func (s *Store) LatestValues(ctx context.Context, since time.Time) (map[string]float64, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT ON (name) name, value
		FROM metrics
		WHERE timestamp >= $1
		ORDER BY name, timestamp DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

type MetricAggregate struct {
	Name       string  `json:"name"`
	Average    float64 `json:"average"`
	DataPoints int     `json:"data_points"`
}

func (s *Store) MetricAggregates(ctx context.Context, since time.Time) ([]MetricAggregate, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT name, AVG(value), COUNT(*)
		FROM metrics
		WHERE timestamp >= $1
		GROUP BY name
		ORDER BY name
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MetricAggregate
	for rows.Next() {
		var a MetricAggregate
		if err := rows.Scan(&a.Name, &a.Average, &a.DataPoints); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpsertKPITarget(ctx context.Context, t models.KPITarget) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO kpi_targets (metric_name, target_value, target_period, alert_threshold, improvement_goal, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (metric_name) DO UPDATE SET
			target_value = EXCLUDED.target_value,
			target_period = EXCLUDED.target_period,
			alert_threshold = EXCLUDED.alert_threshold,
			improvement_goal = EXCLUDED.improvement_goal,
			updated_at = NOW()
	`, t.MetricName, t.TargetValue, t.TargetPeriod, t.AlertThreshold, t.ImprovementGoal)
	return err
}

func (s *Store) ListKPITargets(ctx context.Context) ([]models.KPITarget, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT metric_name, target_value, target_period, alert_threshold, improvement_goal, updated_at
		FROM kpi_targets ORDER BY metric_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KPITarget
	for rows.Next() {
		var t models.KPITarget
		if err := rows.Scan(&t.MetricName, &t.TargetValue, &t.TargetPeriod, &t.AlertThreshold, &t.ImprovementGoal, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) InsertAlert(ctx context.Context, a models.Alert) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO alerts (alert_type, metric_name, current_value, target_value, threshold_breached, message)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, a.AlertType, a.MetricName, a.CurrentValue, a.TargetValue, a.ThresholdBreached, a.Message).Scan(&id)
	return id, err
}

func (s *Store) ListAlerts(ctx context.Context, includeResolved bool, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, alert_type, metric_name, current_value, target_value, threshold_breached, message, resolved, created_at FROM alerts`
	if !includeResolved {
		query += ` WHERE NOT resolved`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.AlertType, &a.MetricName, &a.CurrentValue, &a.TargetValue, &a.ThresholdBreached, &a.Message, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ResolveAlert(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE alerts SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func dimsOrEmpty(dims map[string]string) map[string]string {
	if dims == nil {
		return map[string]string{}
	}
	return dims
}
