package connector

import (
	"context"
	"testing"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func fetchAll(t *testing.T, c Connector) map[string]models.Metric {
	t.Helper()
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)
	metrics, err := c.FetchMetrics(context.Background(), start, end)
	if err != nil {
		t.Fatalf("%s fetch: %v", c.Name(), err)
	}
	byName := make(map[string]models.Metric, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}
	return byName
}

func TestAnalyticsMockCoversFunnel(t *testing.T) {
	byName := fetchAll(t, AnalyticsMock{})

	stages := []string{
		"funnel_landing_page_views",
		"funnel_calculator_starts",
		"funnel_calculator_completions",
		"funnel_form_submissions",
		"funnel_proposal_requests",
	}
	for _, s := range stages {
		m, ok := byName[s]
		if !ok {
			t.Fatalf("missing funnel stage %s", s)
		}
		if m.Kind != models.KindCounter {
			t.Fatalf("%s should be a counter, got %s", s, m.Kind)
		}
		if m.Source != "ga4" {
			t.Fatalf("%s should come from ga4, got %s", s, m.Source)
		}
	}
	if byName["ga4_bounce_rate"].Kind != models.KindGauge {
		t.Fatalf("bounce rate should be a gauge")
	}
}

func TestEmailMockDerivesRates(t *testing.T) {
	byName := fetchAll(t, EmailMock{})

	open, ok := byName["email_open_rate"]
	if !ok {
		t.Fatalf("missing derived open rate")
	}
	if open.Kind != models.KindRate {
		t.Fatalf("open rate should be a rate, got %s", open.Kind)
	}
	want := 154.0 / 442.0 * 100
	if open.Value != want {
		t.Fatalf("expected open rate %v, got %v", want, open.Value)
	}
}

func TestCRMMockLeadCounts(t *testing.T) {
	byName := fetchAll(t, CRMMock{})

	if byName["crm_leads_created"].Value != 42 {
		t.Fatalf("unexpected leads created: %v", byName["crm_leads_created"].Value)
	}
	if byName["crm_leads_qualified"].Value != 28 {
		t.Fatalf("unexpected leads qualified: %v", byName["crm_leads_qualified"].Value)
	}
}

func TestMocksTagPeriodDimensions(t *testing.T) {
	byName := fetchAll(t, CRMMock{})
	m := byName["crm_leads_created"]
	if m.Dimensions["period_start"] == "" || m.Dimensions["period_end"] == "" {
		t.Fatalf("expected period dimensions, got %v", m.Dimensions)
	}
}
