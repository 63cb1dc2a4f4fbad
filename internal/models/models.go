package models

import "time"

// MetricKind classifies how a metric value behaves over time.
type MetricKind string

const (
	KindCounter MetricKind = "counter"
	KindGauge   MetricKind = "gauge"
	KindRate    MetricKind = "rate"
)

func ValidMetricKind(k MetricKind) bool {
	switch k {
	case KindCounter, KindGauge, KindRate:
		return true
	}
	return false
}

// Metric is a single observation. Rows are append-only: once written they are
// never updated or deleted.
type Metric struct {
	ID         int64             `json:"id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Kind       MetricKind        `json:"kind"`
	Source     string            `json:"source"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	CampaignID string            `json:"campaign_id"`
}

// KPITarget holds the target for one metric name. AlertThreshold is the
// percentage below target that triggers an alert.
type KPITarget struct {
	MetricName      string    `json:"metric_name" validate:"required"`
	TargetValue     float64   `json:"target_value"`
	TargetPeriod    string    `json:"target_period" validate:"required,oneof=daily weekly monthly quarterly"`
	AlertThreshold  float64   `json:"alert_threshold" validate:"gte=0,lte=100"`
	ImprovementGoal float64   `json:"improvement_goal"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

func ValidTargetPeriod(p string) bool {
	switch p {
	case "daily", "weekly", "monthly", "quarterly":
		return true
	}
	return false
}

type Alert struct {
	ID                int64     `json:"id"`
	AlertType         string    `json:"alert_type"`
	MetricName        string    `json:"metric_name"`
	CurrentValue      float64   `json:"current_value"`
	TargetValue       float64   `json:"target_value"`
	ThresholdBreached float64   `json:"threshold_breached"`
	Message           string    `json:"message"`
	Resolved          bool      `json:"resolved"`
	CreatedAt         time.Time `json:"created_at"`
}

const (
	AlertKPIUnderperformance  = "kpi_underperformance"
	AlertDataCollectionFailed = "data_collection_failure"
)

type DecisionType string

const (
	TacticalOptimization DecisionType = "tactical_optimization"
	StrategicPivot       DecisionType = "strategic_pivot"
	ResourceAllocation   DecisionType = "resource_allocation"
	CampaignExpansion    DecisionType = "campaign_expansion"
	EmergencyResponse    DecisionType = "emergency_response"
)

// Priority is an explicit ordinal: lower number means more urgent.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// Recommendation is a candidate optimization emitted by an analysis pass.
// IDs are deterministic from the triggering condition, so re-running analysis
// on the same condition replaces the row instead of duplicating it.
// PriorityScore and Category are derived by the decision matrix, not set by
// the generator.
type Recommendation struct {
	ID                     string             `json:"id"`
	Title                  string             `json:"title"`
	Description            string             `json:"description"`
	DecisionType           DecisionType       `json:"decision_type"`
	Priority               Priority           `json:"priority"`
	EstimatedImpact        float64            `json:"estimated_impact"`
	ConfidenceLevel        float64            `json:"confidence_level"`
	ImplementationEffort   Effort             `json:"implementation_effort"`
	ImplementationTimeline int                `json:"implementation_timeline"`
	RequiredResources      []string           `json:"required_resources"`
	SuccessMetrics         []string           `json:"success_metrics"`
	RiskFactors            []string           `json:"risk_factors"`
	SupportingData         map[string]float64 `json:"supporting_data"`
	CreatedAt              time.Time          `json:"created_at"`
	CreatedBy              string             `json:"created_by"`
	PriorityScore          float64            `json:"priority_score"`
	Category               Category           `json:"category"`
}

type DecisionStatus string

const (
	StatusPendingApproval DecisionStatus = "pending_approval"
	StatusApproved        DecisionStatus = "approved"
	StatusInProgress      DecisionStatus = "in_progress"
	StatusCompleted       DecisionStatus = "completed"
	StatusCancelled       DecisionStatus = "cancelled"
)

const (
	VerdictApprove = "approve"
	VerdictReject  = "reject"
	VerdictModify  = "modify"
	VerdictDefer   = "defer"
)

// Decision is one disposition of a recommendation. Decisions form an
// append-only history per recommendation: a later decision is a new row, not
// an update. SuccessCriteria is a snapshot of the recommendation's success
// metrics taken at decision time.
type Decision struct {
	ID                int64          `json:"id"`
	RecommendationID  string         `json:"recommendation_id"`
	Decision          string         `json:"decision"`
	DecisionRationale string         `json:"decision_rationale"`
	ApprovedBudget    float64        `json:"approved_budget"`
	AssignedTeam      []string       `json:"assigned_team"`
	TargetCompletion  time.Time      `json:"target_completion"`
	SuccessCriteria   []string       `json:"success_criteria"`
	DecisionMaker     string         `json:"decision_maker"`
	DecisionDate      time.Time      `json:"decision_date"`
	Status            DecisionStatus `json:"status"`
	ActualImpact      *float64       `json:"actual_impact,omitempty"`
	LessonsLearned    *string        `json:"lessons_learned,omitempty"`
}

type CyclePhase string

const (
	PhaseBuild   CyclePhase = "build"
	PhaseMeasure CyclePhase = "measure"
	PhaseAnalyze CyclePhase = "analyze"
	PhaseDecide  CyclePhase = "decide"
)

type CycleStatus string

const (
	CycleActive    CycleStatus = "active"
	CycleCompleted CycleStatus = "completed"
	CyclePaused    CycleStatus = "paused"
)

type Cycle struct {
	ID                 string      `json:"cycle_id"`
	Phase              CyclePhase  `json:"phase"`
	StartDate          time.Time   `json:"start_date"`
	CurrentPhaseStart  time.Time   `json:"current_phase_start"`
	ExpectedCompletion time.Time   `json:"expected_completion"`
	MetricsCollected   int         `json:"metrics_collected"`
	DecisionsPending   int         `json:"decisions_pending"`
	Status             CycleStatus `json:"status"`
}

// Proposal tracks one generated client proposal through its funnel.
type Proposal struct {
	ID                  int64     `json:"id"`
	ClientName          string    `json:"client_name"`
	PackageType         string    `json:"package_type"`
	TotalValue          float64   `json:"total_value"`
	ROIProjection       float64   `json:"roi_projection"`
	ProposalOpened      bool      `json:"proposal_opened"`
	ResponseReceived    bool      `json:"response_received"`
	ClosedWon           bool      `json:"closed_won"`
	OptimizationVersion string    `json:"optimization_version"`
	CreatedAt           time.Time `json:"created_at"`
}
