package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMetricRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	m := models.Metric{
		Timestamp:  time.Now().UTC(),
		Name:       "test_roundtrip_metric",
		Value:      123.45,
		Kind:       models.KindGauge,
		Source:     "test",
		Dimensions: map[string]string{"channel": "organic"},
		CampaignID: "test_campaign",
	}
	id, err := store.InsertMetric(ctx, m)
	if err != nil {
		t.Fatalf("insert metric: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := store.LatestValue(ctx, "test_roundtrip_metric")
	if err != nil {
		t.Fatalf("latest value: %v", err)
	}
	if got != 123.45 {
		t.Fatalf("expected 123.45, got %v", got)
	}

	rows, err := store.QueryMetrics(ctx, "test_roundtrip_metric", time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("query metrics: %v", err)
	}
	if len(rows) == 0 || rows[0].Dimensions["channel"] != "organic" {
		t.Fatalf("expected dimensions to survive the round trip, got %+v", rows)
	}
}

func TestLatestValueNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.LatestValue(context.Background(), "metric_that_never_existed")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKPITargetUpsert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	target := models.KPITarget{
		MetricName:     "test_upsert_metric",
		TargetValue:    100,
		TargetPeriod:   "weekly",
		AlertThreshold: 15,
	}
	if err := store.UpsertKPITarget(ctx, target); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	target.TargetValue = 200
	if err := store.UpsertKPITarget(ctx, target); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	targets, err := store.ListKPITargets(ctx)
	if err != nil {
		t.Fatalf("list targets: %v", err)
	}
	count := 0
	for _, tgt := range targets {
		if tgt.MetricName == "test_upsert_metric" {
			count++
			if tgt.TargetValue != 200 {
				t.Fatalf("expected updated target 200, got %v", tgt.TargetValue)
			}
		}
	}
	if count != 1 {
		t.Fatalf("upsert should keep exactly one row per metric, found %d", count)
	}
}

func TestRecommendationUpsertKeepsOneRow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := models.Recommendation{
		ID:                   "test_rec_upsert",
		Title:                "Test recommendation",
		DecisionType:         models.TacticalOptimization,
		Priority:             models.PriorityHigh,
		EstimatedImpact:      15,
		ConfidenceLevel:      0.8,
		ImplementationEffort: models.EffortMedium,
		CreatedAt:            time.Now().UTC(),
		CreatedBy:            "test",
	}
	if err := store.SaveRecommendations(ctx, []models.Recommendation{rec}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	rec.Title = "Updated title"
	if err := store.SaveRecommendations(ctx, []models.Recommendation{rec}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.GetRecommendation(ctx, "test_rec_upsert")
	if err != nil {
		t.Fatalf("get recommendation: %v", err)
	}
	if got.Title != "Updated title" {
		t.Fatalf("expected updated title, got %q", got.Title)
	}

	n, err := store.CountRecommendationRows(ctx, "test_rec_upsert")
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("upsert should keep exactly one row, found %d", n)
	}
}

func TestGetRecommendationNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetRecommendation(context.Background(), "rec_that_never_existed")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCycleOnlyWhileActive(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Free the single-active slot if an earlier run left a cycle behind.
	if c, err := store.ActiveCycle(ctx); err == nil {
		c.Status = models.CycleCompleted
		if err := store.UpdateCycle(ctx, c); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}

	now := time.Now().UTC()
	c := models.Cycle{
		ID:                 "test_cycle_" + uuid.NewString(),
		Phase:              models.PhaseMeasure,
		StartDate:          now,
		CurrentPhaseStart:  now,
		ExpectedCompletion: now.AddDate(0, 0, 28),
		Status:             models.CycleActive,
	}
	if err := store.CreateCycle(ctx, c); err != nil {
		t.Fatalf("create cycle: %v", err)
	}

	// A caller holding a stale copy of the active row.
	stale := c

	c.Status = models.CycleCompleted
	if err := store.UpdateCycle(ctx, c); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stale.Phase = models.PhaseDecide
	if err := store.UpdateCycle(ctx, stale); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale write against a finished cycle should miss, got %v", err)
	}

	got, err := store.GetCycle(ctx, c.ID)
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if got.Status != models.CycleCompleted || got.Phase != models.PhaseMeasure {
		t.Fatalf("finished cycle must stay untouched, got status=%s phase=%s", got.Status, got.Phase)
	}
}

func TestResolveAlertNotFound(t *testing.T) {
	store := testStore(t)

	err := store.ResolveAlert(context.Background(), -1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
