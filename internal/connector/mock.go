package connector

import (
	"context"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

// The mock connectors return fixed, plausible numbers. They stand in for the
// real platforms in development and in tests.

type AnalyticsMock struct{}

func (AnalyticsMock) Name() string { return "ga4" }

func (AnalyticsMock) FetchMetrics(_ context.Context, start, end time.Time) ([]models.Metric, error) {
	now := time.Now().UTC()
	dims := periodDims(start, end)

	gauges := map[string]float64{
		"ga4_sessions":         1250,
		"ga4_users":            980,
		"ga4_page_views":       3840,
		"ga4_bounce_rate":      42.0,
		"ga4_avg_session_time": 145.0,
	}
	counters := map[string]float64{
		"funnel_landing_page_views":     1250,
		"funnel_calculator_starts":      320,
		"funnel_calculator_completions": 180,
		"funnel_form_submissions":       45,
		"funnel_proposal_requests":      42,
	}

	var out []models.Metric
	for name, value := range gauges {
		out = append(out, models.Metric{
			Timestamp: now, Name: name, Value: value,
			Kind: models.KindGauge, Source: "ga4", Dimensions: dims,
		})
	}
	for name, value := range counters {
		out = append(out, models.Metric{
			Timestamp: now, Name: name, Value: value,
			Kind: models.KindCounter, Source: "ga4", Dimensions: dims,
		})
	}
	return out, nil
}

type EmailMock struct{}

func (EmailMock) Name() string { return "email" }

func (EmailMock) FetchMetrics(_ context.Context, start, end time.Time) ([]models.Metric, error) {
	now := time.Now().UTC()
	dims := periodDims(start, end)

	var (
		sent      = 450.0
		delivered = 442.0
		opened    = 154.0
		clicked   = 32.0
	)
	out := []models.Metric{
		{Timestamp: now, Name: "email_sent", Value: sent, Kind: models.KindCounter, Source: "email", Dimensions: dims},
		{Timestamp: now, Name: "email_delivered", Value: delivered, Kind: models.KindCounter, Source: "email", Dimensions: dims},
		{Timestamp: now, Name: "email_opened", Value: opened, Kind: models.KindCounter, Source: "email", Dimensions: dims},
		{Timestamp: now, Name: "email_clicked", Value: clicked, Kind: models.KindCounter, Source: "email", Dimensions: dims},
	}
	if delivered > 0 {
		out = append(out,
			models.Metric{Timestamp: now, Name: "email_open_rate", Value: opened / delivered * 100, Kind: models.KindRate, Source: "email", Dimensions: dims},
			models.Metric{Timestamp: now, Name: "email_click_rate", Value: clicked / delivered * 100, Kind: models.KindRate, Source: "email", Dimensions: dims},
		)
	}
	return out, nil
}

type CRMMock struct{}

func (CRMMock) Name() string { return "crm" }

func (CRMMock) FetchMetrics(_ context.Context, start, end time.Time) ([]models.Metric, error) {
	now := time.Now().UTC()
	dims := periodDims(start, end)

	counters := map[string]float64{
		"crm_leads_created":   42,
		"crm_leads_qualified": 28,
		"crm_opportunities":   18,
		"crm_closed_won":      6,
		"crm_closed_lost":     4,
	}
	gauges := map[string]float64{
		"crm_revenue_closed":   45000,
		"crm_avg_deal_size":    7500,
		"crm_sales_cycle_days": 21,
	}

	var out []models.Metric
	for name, value := range counters {
		out = append(out, models.Metric{
			Timestamp: now, Name: name, Value: value,
			Kind: models.KindCounter, Source: "crm", Dimensions: dims,
		})
	}
	for name, value := range gauges {
		out = append(out, models.Metric{
			Timestamp: now, Name: name, Value: value,
			Kind: models.KindGauge, Source: "crm", Dimensions: dims,
		})
	}
	return out, nil
}

func periodDims(start, end time.Time) map[string]string {
	return map[string]string{
		"period_start": start.Format("2006-01-02"),
		"period_end":   end.Format("2006-01-02"),
	}
}
