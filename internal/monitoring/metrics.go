// Package monitoring exposes the process-level Prometheus counters served
// on /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaign_metrics_recorded_total",
		Help: "Campaign metrics accepted into the store.",
	})

	AlertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaign_alerts_created_total",
		Help: "Alerts raised for KPI breaches and collection failures.",
	})

	RecommendationsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaign_recommendations_generated_total",
		Help: "Recommendations produced by analysis runs.",
	})

	DecisionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaign_decisions_recorded_total",
		Help: "Decisions recorded against recommendations.",
	})

	CollectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_collection_failures_total",
		Help: "Connector fetches that failed during measure collection.",
	}, []string{"source"})
)
