package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/db"
	"github.com/mybenefitsvideos/campaign-backend/internal/models"
	"github.com/mybenefitsvideos/campaign-backend/internal/utils"
)

// ReportService renders markdown summaries for the weekly review.
type ReportService struct {
	Store      *db.Store
	Logger     zerolog.Logger
	CampaignID string
}

// Performance summarizes measurement and proposal activity over the last
// daysBack days.
func (s *ReportService) Performance(ctx context.Context, daysBack int) (string, error) {
	since := time.Now().UTC().AddDate(0, 0, -daysBack)

	aggs, err := s.Store.MetricAggregates(ctx, since)
	if err != nil {
		return "", fmt.Errorf("aggregate metrics: %w", err)
	}
	proposals, err := s.Store.SummarizeProposals(ctx, since)
	if err != nil {
		return "", fmt.Errorf("summarize proposals: %w", err)
	}
	alerts, err := s.Store.ListAlerts(ctx, false, 20)
	if err != nil {
		return "", fmt.Errorf("list alerts: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Campaign Performance Report\n\n")
	fmt.Fprintf(&b, "Campaign: %s\n", s.CampaignID)
	fmt.Fprintf(&b, "Period: last %d days (since %s)\n\n", daysBack, since.Format("2006-01-02"))

	b.WriteString("## Metrics\n\n")
	if len(aggs) == 0 {
		b.WriteString("No metrics recorded in this period.\n")
	} else {
		b.WriteString("| Metric | Average | Samples |\n|---|---|---|\n")
		for _, a := range aggs {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", a.Name, utils.FormatMetricValue(a.Name, a.Average), a.DataPoints)
		}
	}

	b.WriteString("\n## Proposals\n\n")
	if proposals.Total == 0 {
		b.WriteString("No proposals generated in this period.\n")
	} else {
		fmt.Fprintf(&b, "- Generated: %d\n", proposals.Total)
		fmt.Fprintf(&b, "- Average value: %s\n", utils.FormatMetricValue("value", proposals.AverageValue))
		fmt.Fprintf(&b, "- Average projected ROI: %.1fx\n", proposals.AverageROI)
		fmt.Fprintf(&b, "- Opened: %d, responded: %d, closed won: %d\n",
			proposals.OpenedCount, proposals.ResponseCount, proposals.ClosedCount)
	}

	b.WriteString("\n## Open Alerts\n\n")
	if len(alerts) == 0 {
		b.WriteString("No open alerts.\n")
	} else {
		for _, a := range alerts {
			fmt.Fprintf(&b, "- [%s] %s\n", a.AlertType, a.Message)
		}
	}
	return b.String(), nil
}

// Decisions summarizes what is waiting for a verdict and what was decided
// in the last week.
func (s *ReportService) Decisions(ctx context.Context) (string, error) {
	pending, err := s.Store.PendingRecommendations(ctx)
	if err != nil {
		return "", fmt.Errorf("pending recommendations: %w", err)
	}
	recent, err := s.Store.RecentDecisions(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return "", fmt.Errorf("recent decisions: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Decision Report\n\n")

	b.WriteString("## Awaiting Decision\n\n")
	if len(pending) == 0 {
		b.WriteString("Nothing is waiting for a decision.\n")
	} else {
		top := pending
		if len(top) > 5 {
			top = top[:5]
		}
		for _, r := range top {
			fmt.Fprintf(&b, "- **%s** (%s, est. impact %.0f%%, score %.0f)\n  %s\n",
				r.Title, Categorize(r.EstimatedImpact, r.ImplementationEffort), r.EstimatedImpact,
				r.PriorityScore, r.Description)
		}
		if len(pending) > 5 {
			fmt.Fprintf(&b, "- ...and %d more\n", len(pending)-5)
		}
	}

	b.WriteString("\n## Decided This Week\n\n")
	if len(recent) == 0 {
		b.WriteString("No decisions recorded this week.\n")
	} else {
		for _, d := range recent {
			fmt.Fprintf(&b, "- %s: **%s** (%s) on %s\n",
				d.RecommendationTitle, d.Decision.Decision, d.Status, d.DecisionDate.Format("2006-01-02"))
		}
	}
	return b.String(), nil
}

// CycleSummary is a one-paragraph status line for the active cycle.
func CycleSummary(c models.Cycle) string {
	return fmt.Sprintf("Cycle %s is %s in the %s phase since %s, %d metrics collected, %d decisions pending, expected completion %s.",
		c.ID, c.Status, c.Phase, c.CurrentPhaseStart.Format("2006-01-02"),
		c.MetricsCollected, c.DecisionsPending, c.ExpectedCompletion.Format("2006-01-02"))
}
