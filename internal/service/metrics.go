package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/monitoring"
)

// MetricsService validates and persists measurements, checking each one
// against its KPI target after the write.
type MetricsService struct {
	Store      *db.Store
	KPI        *KPIRegistry
	Logger     zerolog.Logger
	CampaignID string
}

// ValidateMetric rejects a measurement before anything touches the store.
func ValidateMetric(m models.Metric) error {
	if m.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !models.ValidMetricKind(m.Kind) {
		return &ValidationError{Field: "kind", Reason: "must be counter, gauge or rate"}
	}
	return nil
}

func (s *MetricsService) normalize(m models.Metric) models.Metric {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if m.CampaignID == "" {
		m.CampaignID = s.CampaignID
	}
	return m
}

// Record stores a single measurement. A KPI breach on the new value raises
// an alert but never fails the write that caused it.
func (s *MetricsService) Record(ctx context.Context, m models.Metric) (models.Metric, error) {
	if err := ValidateMetric(m); err != nil {
		return models.Metric{}, err
	}
	m = s.normalize(m)

	id, err := s.Store.InsertMetric(ctx, m)
	if err != nil {
		return models.Metric{}, err
	}
	m.ID = id
	monitoring.MetricsRecorded.Inc()

	if _, err := s.KPI.CheckAlert(ctx, m.Name, m.Value); err != nil {
		s.Logger.Warn().Err(err).Str("metric", m.Name).Msg("kpi check failed")
	}
	return m, nil
}

// RecordBatch stores a set of measurements atomically. Validation covers the
// whole batch up front, so one bad entry rejects all of them and nothing is
// written. Alert checks run per entry after the batch commits.
func (s *MetricsService) RecordBatch(ctx context.Context, metrics []models.Metric) (int, error) {
	for i := range metrics {
		if err := ValidateMetric(metrics[i]); err != nil {
			return 0, err
		}
		metrics[i] = s.normalize(metrics[i])
	}
	if len(metrics) == 0 {
		return 0, nil
	}

	n, err := s.Store.InsertMetricBatch(ctx, metrics)
	if err != nil {
		return 0, err
	}
	monitoring.MetricsRecorded.Add(float64(n))

	for _, m := range metrics {
		if _, err := s.KPI.CheckAlert(ctx, m.Name, m.Value); err != nil {
			s.Logger.Warn().Err(err).Str("metric", m.Name).Msg("kpi check failed")
		}
	}
	return int(n), nil
}
