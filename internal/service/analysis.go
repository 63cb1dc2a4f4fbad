package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/monitoring"
)

// AnalysisConfig carries the thresholds and benchmarks the analyzers compare
// measured values against.
type AnalysisConfig struct {
	WindowDays int

	// FunnelStages lists the conversion funnel top to bottom. Each adjacent
	// pair is checked against FunnelBenchmarks, keyed "<from>_to_<to>".
	FunnelStages     []string
	FunnelBenchmarks map[string]float64

	// ShortfallRatio is the fraction of benchmark below which a funnel stage
	// is flagged. 0.8 means a stage converting at under 80% of benchmark.
	ShortfallRatio float64

	BounceRateCeiling      float64
	OpenRateFloor          float64
	QualificationRateFloor float64

	CreatedBy string
}

func DefaultAnalysisConfig(windowDays int) AnalysisConfig {
	return AnalysisConfig{
		WindowDays: windowDays,
		FunnelStages: []string{
			"funnel_landing_page_views",
			"funnel_calculator_starts",
			"funnel_calculator_completions",
			"funnel_form_submissions",
			"funnel_proposal_requests",
		},
		FunnelBenchmarks: map[string]float64{
			"funnel_landing_page_views_to_funnel_calculator_starts":     25.0,
			"funnel_calculator_starts_to_funnel_calculator_completions": 60.0,
			"funnel_calculator_completions_to_funnel_form_submissions":  25.0,
			"funnel_form_submissions_to_funnel_proposal_requests":       95.0,
		},
		ShortfallRatio:         0.8,
		BounceRateCeiling:      60.0,
		OpenRateFloor:          30.0,
		QualificationRateFloor: 60.0,
		CreatedBy:              "analysis_engine",
	}
}

// AnalysisService turns the latest measurement window into prioritized
// recommendations.
type AnalysisService struct {
	Store  *db.Store
	Config AnalysisConfig
	Logger zerolog.Logger
}

// Run loads the latest value of every metric inside the window and feeds the
// table through each analyzer. An empty window yields no recommendations and
// no error.
func (s *AnalysisService) Run(ctx context.Context) ([]models.Recommendation, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.Config.WindowDays)
	latest, err := s.Store.LatestValues(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load metric window: %w", err)
	}
	if len(latest) == 0 {
		s.Logger.Info().Int("window_days", s.Config.WindowDays).Msg("no metrics in analysis window")
		return nil, nil
	}

	now := time.Now().UTC()
	var recs []models.Recommendation
	recs = append(recs, analyzeFunnel(s.Config, latest, now)...)
	recs = append(recs, analyzeTrafficQuality(s.Config, latest, now)...)
	recs = append(recs, analyzeEmailPerformance(s.Config, latest, now)...)
	recs = append(recs, analyzeSalesPipeline(s.Config, latest, now)...)

	recs = Prioritize(recs)
	monitoring.RecommendationsGenerated.Add(float64(len(recs)))
	s.Logger.Info().Int("recommendations", len(recs)).Msg("analysis run complete")
	return recs, nil
}

// analyzeFunnel walks adjacent funnel stages and flags any conversion rate
// running significantly below its benchmark. Stages with a zero or missing
// upstream count are skipped, not flagged.
func analyzeFunnel(cfg AnalysisConfig, latest map[string]float64, now time.Time) []models.Recommendation {
	var recs []models.Recommendation
	for i := 0; i+1 < len(cfg.FunnelStages); i++ {
		from, to := cfg.FunnelStages[i], cfg.FunnelStages[i+1]
		fromVal, ok := latest[from]
		if !ok || fromVal == 0 {
			continue
		}
		toVal, ok := latest[to]
		if !ok {
			continue
		}

		pairKey := from + "_to_" + to
		benchmark, ok := cfg.FunnelBenchmarks[pairKey]
		if !ok {
			continue
		}
		rate := toVal / fromVal * 100
		if rate >= benchmark*cfg.ShortfallRatio {
			continue
		}

		recs = append(recs, models.Recommendation{
			ID:    "funnel_optimization_" + pairKey,
			Title: fmt.Sprintf("Optimize %s conversion", funnelStageLabel(pairKey)),
			Description: fmt.Sprintf(
				"Current conversion rate (%.1f%%) is significantly below benchmark (%.1f%%). Focus on improving this funnel stage.",
				rate, benchmark),
			DecisionType:           models.TacticalOptimization,
			Priority:               models.PriorityHigh,
			EstimatedImpact:        15.0,
			ConfidenceLevel:        0.8,
			ImplementationEffort:   models.EffortMedium,
			ImplementationTimeline: 14,
			RequiredResources:      []string{"UX designer", "developer", "copywriter"},
			SuccessMetrics:         []string{pairKey + "_conversion_rate"},
			RiskFactors:            []string{"Changes may temporarily reduce conversions during testing"},
			SupportingData: map[string]float64{
				"current_rate":       rate,
				"benchmark":          benchmark,
				"improvement_needed": benchmark - rate,
			},
			CreatedAt: now,
			CreatedBy: cfg.CreatedBy,
		})
	}
	return recs
}

func analyzeTrafficQuality(cfg AnalysisConfig, latest map[string]float64, now time.Time) []models.Recommendation {
	bounce, ok := latest["ga4_bounce_rate"]
	if !ok || bounce <= cfg.BounceRateCeiling {
		return nil
	}
	return []models.Recommendation{{
		ID:    "reduce_bounce_rate",
		Title: "Reduce landing page bounce rate",
		Description: fmt.Sprintf(
			"Bounce rate of %.1f%% indicates poor traffic quality or landing page mismatch. Review ad targeting and landing page relevance.",
			bounce),
		DecisionType:           models.TacticalOptimization,
		Priority:               models.PriorityHigh,
		EstimatedImpact:        12.0,
		ConfidenceLevel:        0.85,
		ImplementationEffort:   models.EffortMedium,
		ImplementationTimeline: 10,
		RequiredResources:      []string{"marketing analyst", "UX designer"},
		SuccessMetrics:         []string{"ga4_bounce_rate"},
		RiskFactors:            []string{"Tighter targeting may reduce traffic volume"},
		SupportingData: map[string]float64{
			"current_bounce_rate": bounce,
		},
		CreatedAt: now,
		CreatedBy: cfg.CreatedBy,
	}}
}

func analyzeEmailPerformance(cfg AnalysisConfig, latest map[string]float64, now time.Time) []models.Recommendation {
	openRate, ok := latest["email_open_rate"]
	if !ok || openRate >= cfg.OpenRateFloor {
		return nil
	}
	return []models.Recommendation{{
		ID:    "improve_email_open_rates",
		Title: "Improve email subject lines and send timing",
		Description: fmt.Sprintf(
			"Open rate of %.1f%% is below industry standards. Test new subject lines and send time optimization.",
			openRate),
		DecisionType:           models.TacticalOptimization,
		Priority:               models.PriorityMedium,
		EstimatedImpact:        8.0,
		ConfidenceLevel:        0.75,
		ImplementationEffort:   models.EffortLow,
		ImplementationTimeline: 7,
		RequiredResources:      []string{"email marketer"},
		SuccessMetrics:         []string{"email_open_rate"},
		RiskFactors:            []string{"Subject line tests need several sends to show signal"},
		SupportingData: map[string]float64{
			"current_open_rate": openRate,
		},
		CreatedAt: now,
		CreatedBy: cfg.CreatedBy,
	}}
}

// analyzeSalesPipeline derives the qualification rate from raw lead counts.
// A zero created count means no data, not a zero rate, so it is skipped.
func analyzeSalesPipeline(cfg AnalysisConfig, latest map[string]float64, now time.Time) []models.Recommendation {
	created, ok := latest["crm_leads_created"]
	if !ok || created == 0 {
		return nil
	}
	qualified, ok := latest["crm_leads_qualified"]
	if !ok {
		return nil
	}
	rate := qualified / created * 100
	if rate >= cfg.QualificationRateFloor {
		return nil
	}
	return []models.Recommendation{{
		ID:    "improve_lead_qualification",
		Title: "Improve lead qualification process",
		Description: fmt.Sprintf(
			"Only %.1f%% of leads are being qualified. Review lead scoring criteria and qualification process.",
			rate),
		DecisionType:           models.StrategicPivot,
		Priority:               models.PriorityHigh,
		EstimatedImpact:        20.0,
		ConfidenceLevel:        0.7,
		ImplementationEffort:   models.EffortMedium,
		ImplementationTimeline: 21,
		RequiredResources:      []string{"sales lead", "marketing analyst"},
		SuccessMetrics:         []string{"crm_leads_qualified"},
		RiskFactors:            []string{"Stricter scoring may drop borderline leads"},
		SupportingData: map[string]float64{
			"total_leads":        created,
			"qualified_leads":    qualified,
			"qualification_rate": rate,
		},
		CreatedAt: now,
		CreatedBy: cfg.CreatedBy,
	}}
}

// funnelStageLabel turns a pair key into a short human label, for example
// "landing_page_views → calculator_starts".
func funnelStageLabel(pairKey string) string {
	label := strings.TrimPrefix(pairKey, "funnel_")
	return strings.Replace(label, "_to_funnel_", " → ", 1)
}
