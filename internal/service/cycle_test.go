package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/connector"
	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/notify"
)

func testCycleService(t *testing.T) (*CycleService, *db.Store) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := db.New(ctx, url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zerolog.Nop()
	notifier := notify.LogNotifier{Logger: logger}
	kpi, err := NewKPIRegistry(ctx, store, notifier, logger)
	if err != nil {
		t.Fatalf("kpi registry: %v", err)
	}
	metrics := &MetricsService{Store: store, KPI: kpi, Logger: logger, CampaignID: "test_campaign"}
	analysis := &AnalysisService{Store: store, Config: DefaultAnalysisConfig(30), Logger: logger}

	return &CycleService{
		Store:             store,
		Metrics:           metrics,
		Analysis:          analysis,
		Connectors:        []connector.Connector{connector.AnalyticsMock{}, connector.EmailMock{}, connector.CRMMock{}},
		Notifier:          notifier,
		Logger:            logger,
		CycleDurationDays: 28,
		PhaseDays:         testPhaseDays(),
		ConnectorTimeout:  10 * time.Second,
	}, store
}

func testPhaseDays() map[models.CyclePhase]int {
	return map[models.CyclePhase]int{
		models.PhaseBuild:   7,
		models.PhaseMeasure: 14,
		models.PhaseAnalyze: 5,
		models.PhaseDecide:  2,
	}
}

func TestPhaseDeadline(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc := &CycleService{PhaseDays: testPhaseDays()}

	c := models.Cycle{
		Phase:              models.PhaseMeasure,
		CurrentPhaseStart:  start,
		ExpectedCompletion: start.AddDate(0, 0, 28),
	}
	if got := svc.PhaseDeadline(c); !got.Equal(start.AddDate(0, 0, 14)) {
		t.Fatalf("expected measure deadline 14 days out, got %s", got)
	}

	c.Phase = models.CyclePhase("unknown_phase")
	if got := svc.PhaseDeadline(c); !got.Equal(c.ExpectedCompletion) {
		t.Fatalf("unconfigured phase should fall back to expected completion, got %s", got)
	}
}

func completeActiveCycle(t *testing.T, svc *CycleService) {
	t.Helper()
	if _, err := svc.Complete(context.Background()); err != nil && !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("cleanup complete: %v", err)
	}
}

func TestCycleLifecycleIntegration(t *testing.T) {
	svc, _ := testCycleService(t)
	ctx := context.Background()
	completeActiveCycle(t, svc)
	defer completeActiveCycle(t, svc)

	c, created, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !created || c.Phase != models.PhaseBuild {
		t.Fatalf("expected a fresh build-phase cycle, got created=%v phase=%s", created, c.Phase)
	}

	// Starting again hands back the same cycle.
	again, created, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if created || again.ID != c.ID {
		t.Fatalf("expected idempotent start, got created=%v id=%s", created, again.ID)
	}

	// Analyze straight from build is rejected and the phase stays put.
	if _, _, err := svc.AdvanceToAnalyze(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from build, got %v", err)
	}
	current, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if current.Phase != models.PhaseBuild {
		t.Fatalf("failed transition should not move the phase, got %s", current.Phase)
	}

	c, summary, err := svc.AdvanceToMeasure(ctx)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if c.Phase != models.PhaseMeasure {
		t.Fatalf("expected measure phase, got %s", c.Phase)
	}
	if summary.Recorded == 0 || len(summary.Failures) != 0 {
		t.Fatalf("mock connectors should collect cleanly, got %+v", summary)
	}

	c, recs, err := svc.AdvanceToAnalyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if c.Phase != models.PhaseDecide {
		t.Fatalf("analysis should land in decide, got %s", c.Phase)
	}
	if c.DecisionsPending != len(recs) {
		t.Fatalf("decisions pending %d does not match %d recommendations", c.DecisionsPending, len(recs))
	}

	c, err = svc.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Status != models.CycleCompleted {
		t.Fatalf("expected completed status, got %s", c.Status)
	}
	if _, err := svc.Status(ctx); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("completed cycle should no longer be active, got %v", err)
	}
}

type failingConnector struct{}

func (failingConnector) Name() string { return "flaky" }

func (failingConnector) FetchMetrics(context.Context, time.Time, time.Time) ([]models.Metric, error) {
	return nil, &connector.CollectionError{Source: "flaky", Err: errors.New("connection refused")}
}

func TestMeasureSurvivesConnectorFailure(t *testing.T) {
	svc, store := testCycleService(t)
	svc.Connectors = []connector.Connector{failingConnector{}, connector.CRMMock{}}
	ctx := context.Background()
	completeActiveCycle(t, svc)
	defer completeActiveCycle(t, svc)

	if _, _, err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	c, summary, err := svc.AdvanceToMeasure(ctx)
	if err != nil {
		t.Fatalf("a failing connector must not block the transition: %v", err)
	}
	if c.Phase != models.PhaseMeasure {
		t.Fatalf("expected measure phase, got %s", c.Phase)
	}
	if len(summary.Failures) != 1 || summary.Failures[0] != "flaky" {
		t.Fatalf("expected one failure from flaky, got %+v", summary)
	}
	if summary.Recorded == 0 {
		t.Fatalf("healthy connectors should still record")
	}

	alerts, err := store.ListAlerts(ctx, false, 50)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	found := false
	for _, a := range alerts {
		if a.AlertType == models.AlertDataCollectionFailed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a data collection alert, got %+v", alerts)
	}
}
