package service

import (
	"testing"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func testAnalysisConfig() AnalysisConfig {
	return DefaultAnalysisConfig(30)
}

func TestAnalyzeFunnelFlagsShortfall(t *testing.T) {
	latest := map[string]float64{
		"funnel_landing_page_views": 1000,
		"funnel_calculator_starts":  100, // 10% against a 25% benchmark
	}
	recs := analyzeFunnel(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	r := recs[0]
	if r.ID != "funnel_optimization_funnel_landing_page_views_to_funnel_calculator_starts" {
		t.Fatalf("unexpected id %s", r.ID)
	}
	if r.EstimatedImpact != 15.0 || r.ConfidenceLevel != 0.8 || r.ImplementationEffort != models.EffortMedium {
		t.Fatalf("unexpected rec parameters: %+v", r)
	}
	if r.DecisionType != models.TacticalOptimization || r.Priority != models.PriorityHigh {
		t.Fatalf("unexpected type/priority: %+v", r)
	}
	if r.SupportingData["current_rate"] != 10.0 || r.SupportingData["benchmark"] != 25.0 {
		t.Fatalf("unexpected supporting data: %v", r.SupportingData)
	}
}

func TestAnalyzeFunnelHealthyRateSkipped(t *testing.T) {
	// 22% is inside 80% of the 25% benchmark.
	latest := map[string]float64{
		"funnel_landing_page_views": 1000,
		"funnel_calculator_starts":  220,
	}
	recs := analyzeFunnel(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(recs))
	}
}

func TestAnalyzeFunnelZeroDenominatorSkipped(t *testing.T) {
	latest := map[string]float64{
		"funnel_landing_page_views": 0,
		"funnel_calculator_starts":  0,
	}
	recs := analyzeFunnel(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected zero upstream count to be skipped, got %d recs", len(recs))
	}
}

func TestAnalyzeFunnelMissingStageSkipped(t *testing.T) {
	latest := map[string]float64{
		"funnel_landing_page_views": 1000,
	}
	recs := analyzeFunnel(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected missing downstream metric to be skipped, got %d recs", len(recs))
	}
}

func TestAnalyzeTrafficQuality(t *testing.T) {
	recs := analyzeTrafficQuality(testAnalysisConfig(), map[string]float64{"ga4_bounce_rate": 72.5}, time.Now())
	if len(recs) != 1 || recs[0].ID != "reduce_bounce_rate" {
		t.Fatalf("expected reduce_bounce_rate, got %+v", recs)
	}
	if recs[0].EstimatedImpact != 12.0 || recs[0].ConfidenceLevel != 0.85 {
		t.Fatalf("unexpected parameters: %+v", recs[0])
	}

	recs = analyzeTrafficQuality(testAnalysisConfig(), map[string]float64{"ga4_bounce_rate": 45.0}, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected healthy bounce rate to produce nothing, got %d recs", len(recs))
	}
}

func TestAnalyzeEmailPerformance(t *testing.T) {
	recs := analyzeEmailPerformance(testAnalysisConfig(), map[string]float64{"email_open_rate": 22.0}, time.Now())
	if len(recs) != 1 || recs[0].ID != "improve_email_open_rates" {
		t.Fatalf("expected improve_email_open_rates, got %+v", recs)
	}
	if recs[0].Priority != models.PriorityMedium || recs[0].ImplementationEffort != models.EffortLow {
		t.Fatalf("unexpected parameters: %+v", recs[0])
	}

	recs = analyzeEmailPerformance(testAnalysisConfig(), map[string]float64{"email_open_rate": 35.0}, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected healthy open rate to produce nothing, got %d recs", len(recs))
	}
}

func TestAnalyzeSalesPipeline(t *testing.T) {
	latest := map[string]float64{
		"crm_leads_created":   42,
		"crm_leads_qualified": 10,
	}
	recs := analyzeSalesPipeline(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 1 || recs[0].ID != "improve_lead_qualification" {
		t.Fatalf("expected improve_lead_qualification, got %+v", recs)
	}
	if recs[0].DecisionType != models.StrategicPivot || recs[0].EstimatedImpact != 20.0 {
		t.Fatalf("unexpected parameters: %+v", recs[0])
	}
	if recs[0].SupportingData["total_leads"] != 42 || recs[0].SupportingData["qualified_leads"] != 10 {
		t.Fatalf("unexpected supporting data: %v", recs[0].SupportingData)
	}
}

func TestAnalyzeSalesPipelineNoLeads(t *testing.T) {
	latest := map[string]float64{
		"crm_leads_created":   0,
		"crm_leads_qualified": 0,
	}
	recs := analyzeSalesPipeline(testAnalysisConfig(), latest, time.Now())
	if len(recs) != 0 {
		t.Fatalf("expected no leads to be treated as no data, got %d recs", len(recs))
	}
}

func TestFunnelStageLabel(t *testing.T) {
	got := funnelStageLabel("funnel_landing_page_views_to_funnel_calculator_starts")
	want := "landing_page_views → calculator_starts"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
