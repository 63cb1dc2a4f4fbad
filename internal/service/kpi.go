package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/monitoring"
	"github.com/mybenefitsvideos/campaign-backend/internal/notify"
)

// KPIRegistry keeps the per-metric targets in memory, backed by the store.
// Reads during metric ingestion hit the map, not the database.
type KPIRegistry struct {
	store    *db.Store
	notifier notify.Notifier
	logger   zerolog.Logger

	mu      sync.RWMutex
	targets map[string]models.KPITarget
}

func NewKPIRegistry(ctx context.Context, store *db.Store, notifier notify.Notifier, logger zerolog.Logger) (*KPIRegistry, error) {
	r := &KPIRegistry{
		store:    store,
		notifier: notifier,
		logger:   logger,
		targets:  make(map[string]models.KPITarget),
	}
	targets, err := store.ListKPITargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load kpi targets: %w", err)
	}
	for _, t := range targets {
		r.targets[t.MetricName] = t
	}
	return r, nil
}

func (r *KPIRegistry) SetTarget(ctx context.Context, t models.KPITarget) error {
	if t.MetricName == "" {
		return &ValidationError{Field: "metric_name", Reason: "must not be empty"}
	}
	if !models.ValidTargetPeriod(t.TargetPeriod) {
		return &ValidationError{Field: "target_period", Reason: "must be daily, weekly, monthly or quarterly"}
	}
	if t.AlertThreshold < 0 || t.AlertThreshold > 100 {
		return &ValidationError{Field: "alert_threshold", Reason: "must be a percentage between 0 and 100"}
	}
	t.UpdatedAt = time.Now().UTC()
	if err := r.store.UpsertKPITarget(ctx, t); err != nil {
		return err
	}
	r.mu.Lock()
	r.targets[t.MetricName] = t
	r.mu.Unlock()
	return nil
}

func (r *KPIRegistry) Target(name string) (models.KPITarget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}

func (r *KPIRegistry) AllTargets() []models.KPITarget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.KPITarget, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	return out
}

// AlertThresholdValue is the value below which a metric breaches its target.
func AlertThresholdValue(t models.KPITarget) float64 {
	return t.TargetValue * (1 - t.AlertThreshold/100)
}

// Breaches reports whether a measured value falls below the alert floor.
// Landing exactly on the floor is not a breach.
func Breaches(t models.KPITarget, value float64) bool {
	return value < AlertThresholdValue(t)
}

// CheckAlert compares a measured value against its registered target and
// records an alert on a breach. Every breaching measurement produces its own
// alert row. There is no dedup window. Consumers that need quiet periods
// filter on created_at instead.
func (r *KPIRegistry) CheckAlert(ctx context.Context, name string, value float64) (*models.Alert, error) {
	t, ok := r.Target(name)
	if !ok || !Breaches(t, value) {
		return nil, nil
	}

	alert := models.Alert{
		AlertType:         models.AlertKPIUnderperformance,
		MetricName:        name,
		CurrentValue:      value,
		TargetValue:       t.TargetValue,
		ThresholdBreached: t.AlertThreshold,
		Message: fmt.Sprintf("%s is %.2f, below the alert floor %.2f (target %.2f, threshold %.0f%%)",
			name, value, AlertThresholdValue(t), t.TargetValue, t.AlertThreshold),
		CreatedAt: time.Now().UTC(),
	}
	id, err := r.store.InsertAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	alert.ID = id
	monitoring.AlertsCreated.Inc()

	if err := r.notifier.Send(ctx, alert.Message); err != nil {
		r.logger.Warn().Err(err).Str("metric", name).Msg("alert notification failed")
	}
	return &alert, nil
}
