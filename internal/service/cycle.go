package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/connector"
	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/monitoring"
	"github.com/mybenefitsvideos/campaign-backend/internal/notify"
)

// CycleService drives a campaign through the build, measure, analyze and
// decide phases. At most one cycle is active at a time; the database enforces
// that with a partial unique index. Every phase check-and-transition runs
// under the mutex, so concurrent requests cannot interleave a read of the
// cycle with another request's write.
type CycleService struct {
	Store      *db.Store
	Metrics    *MetricsService
	Analysis   *AnalysisService
	Connectors []connector.Connector
	Notifier   notify.Notifier
	Logger     zerolog.Logger

	CycleDurationDays int
	PhaseDays         map[models.CyclePhase]int
	ConnectorTimeout  time.Duration

	mu sync.Mutex
}

// CollectionSummary reports what a measure run actually gathered.
type CollectionSummary struct {
	Recorded int      `json:"metrics_recorded"`
	Failures []string `json:"failures,omitempty"`
}

// Start begins a new cycle in the build phase. If a cycle is already active
// it is returned unchanged, so the call is idempotent.
func (s *CycleService) Start(ctx context.Context) (models.Cycle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := s.Store.ActiveCycle(ctx); err == nil {
		return c, false, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.Cycle{}, false, err
	}

	now := time.Now().UTC()
	c := models.Cycle{
		ID:                 "bmad_cycle_" + uuid.NewString(),
		Phase:              models.PhaseBuild,
		StartDate:          now,
		CurrentPhaseStart:  now,
		ExpectedCompletion: now.AddDate(0, 0, s.CycleDurationDays),
		Status:             models.CycleActive,
	}
	if err := s.Store.CreateCycle(ctx, c); err != nil {
		// A concurrent start from another instance may have won the unique
		// index race. Re-read and hand back whatever is active now.
		if existing, readErr := s.Store.ActiveCycle(ctx); readErr == nil {
			return existing, false, nil
		}
		return models.Cycle{}, false, err
	}

	s.Logger.Info().Str("cycle_id", c.ID).Msg("cycle started")
	s.notifyf(ctx, "New optimization cycle %s started, expected completion %s",
		c.ID, c.ExpectedCompletion.Format("2006-01-02"))
	return c, true, nil
}

// AdvanceToMeasure moves an active build-phase cycle into measure and runs
// collection across all connectors. A failing connector raises an alert and
// is skipped; collection trouble never blocks the phase transition.
func (s *CycleService) AdvanceToMeasure(ctx context.Context) (models.Cycle, CollectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Store.ActiveCycle(ctx)
	if err != nil {
		return models.Cycle{}, CollectionSummary{}, err
	}
	if c.Phase != models.PhaseBuild {
		return models.Cycle{}, CollectionSummary{}, fmt.Errorf("%w: cycle %s is in %s, measure requires build",
			ErrInvalidTransition, c.ID, c.Phase)
	}

	summary := s.collectMetrics(ctx, c)

	c.Phase = models.PhaseMeasure
	c.CurrentPhaseStart = time.Now().UTC()
	c.MetricsCollected += summary.Recorded
	if err := s.Store.UpdateCycle(ctx, c); err != nil {
		return models.Cycle{}, summary, err
	}
	s.Logger.Info().Str("cycle_id", c.ID).Int("recorded", summary.Recorded).
		Strs("failures", summary.Failures).Msg("cycle advanced to measure")
	return c, summary, nil
}

func (s *CycleService) collectMetrics(ctx context.Context, c models.Cycle) CollectionSummary {
	end := time.Now().UTC()
	start := c.CurrentPhaseStart

	var summary CollectionSummary
	for _, conn := range s.Connectors {
		connCtx, cancel := context.WithTimeout(ctx, s.ConnectorTimeout)
		metrics, err := conn.FetchMetrics(connCtx, start, end)
		cancel()
		if err != nil {
			s.recordCollectionFailure(ctx, conn.Name(), err)
			summary.Failures = append(summary.Failures, conn.Name())
			continue
		}
		n, err := s.Metrics.RecordBatch(ctx, metrics)
		if err != nil {
			s.recordCollectionFailure(ctx, conn.Name(), err)
			summary.Failures = append(summary.Failures, conn.Name())
			continue
		}
		summary.Recorded += n
	}
	return summary
}

func (s *CycleService) recordCollectionFailure(ctx context.Context, source string, cause error) {
	s.Logger.Error().Err(cause).Str("source", source).Msg("metric collection failed")
	monitoring.CollectionFailures.WithLabelValues(source).Inc()

	alert := models.Alert{
		AlertType:         models.AlertDataCollectionFailed,
		MetricName:        "system_health",
		CurrentValue:      0,
		TargetValue:       1,
		ThresholdBreached: 100,
		Message:           fmt.Sprintf("Data collection from %s failed: %v", source, cause),
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := s.Store.InsertAlert(ctx, alert); err != nil {
		s.Logger.Error().Err(err).Str("source", source).Msg("failed to record collection alert")
		return
	}
	monitoring.AlertsCreated.Inc()
}

// AdvanceToAnalyze runs the analysis over the measured window and lands the
// cycle in the decide phase with its recommendations saved. Analysis itself
// is a single step, so the analyze phase is never observable at rest. If
// analysis or saving fails the cycle stays in measure.
func (s *CycleService) AdvanceToAnalyze(ctx context.Context) (models.Cycle, []models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Store.ActiveCycle(ctx)
	if err != nil {
		return models.Cycle{}, nil, err
	}
	if c.Phase != models.PhaseMeasure {
		return models.Cycle{}, nil, fmt.Errorf("%w: cycle %s is in %s, analyze requires measure",
			ErrInvalidTransition, c.ID, c.Phase)
	}

	recs, err := s.Analysis.Run(ctx)
	if err != nil {
		return models.Cycle{}, nil, err
	}
	if err := s.Store.SaveRecommendations(ctx, recs); err != nil {
		return models.Cycle{}, nil, fmt.Errorf("save recommendations: %w", err)
	}

	c.Phase = models.PhaseDecide
	c.CurrentPhaseStart = time.Now().UTC()
	c.DecisionsPending = len(recs)
	if err := s.Store.UpdateCycle(ctx, c); err != nil {
		return models.Cycle{}, nil, err
	}

	s.Logger.Info().Str("cycle_id", c.ID).Int("recommendations", len(recs)).
		Msg("cycle advanced to decide")
	s.notifyf(ctx, "Cycle %s analysis complete: %d recommendations awaiting decisions", c.ID, len(recs))
	return c, recs, nil
}

// Complete closes the active cycle regardless of phase. Cutting a cycle
// short is allowed; restarting a completed one is not.
func (s *CycleService) Complete(ctx context.Context) (models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Store.ActiveCycle(ctx)
	if err != nil {
		return models.Cycle{}, err
	}
	c.Status = models.CycleCompleted
	if err := s.Store.UpdateCycle(ctx, c); err != nil {
		return models.Cycle{}, err
	}
	s.Logger.Info().Str("cycle_id", c.ID).Msg("cycle completed")
	s.notifyf(ctx, "Optimization cycle %s completed", c.ID)
	return c, nil
}

// Status returns the active cycle, or ErrNotFound when none is running.
func (s *CycleService) Status(ctx context.Context) (models.Cycle, error) {
	return s.Store.ActiveCycle(ctx)
}

// PhaseDeadline is when the current phase is scheduled to end, per the
// configured days-per-phase cadence. An unconfigured phase falls back to the
// remaining cycle duration.
func (s *CycleService) PhaseDeadline(c models.Cycle) time.Time {
	if days, ok := s.PhaseDays[c.Phase]; ok {
		return c.CurrentPhaseStart.AddDate(0, 0, days)
	}
	return c.ExpectedCompletion
}

func (s *CycleService) notifyf(ctx context.Context, format string, args ...any) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(ctx, fmt.Sprintf(format, args...)); err != nil {
		s.Logger.Warn().Err(err).Msg("cycle notification failed")
	}
}
