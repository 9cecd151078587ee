package models

import (
	"time"
)

// Metric identifies a campaign KPI. Base metrics come straight from daily
// snapshots; derived metrics (CTR, CVR, CPA, CPC, ROAS) are computed ratios.
type Metric string

const (
	MetricImpressions Metric = "impressions"
	MetricClicks      Metric = "clicks"
	MetricSpend       Metric = "spend"
	MetricConversions Metric = "conversions"
	MetricRevenue     Metric = "revenue"
	MetricCTR         Metric = "ctr"
	MetricCVR         Metric = "cvr"
	MetricCPA         Metric = "cpa"
	MetricCPC         Metric = "cpc"
	MetricROAS        Metric = "roas"
)

// IsCostMetric reports whether an increase in the metric is adverse.
func (m Metric) IsCostMetric() bool {
	switch m {
	case MetricSpend, MetricCPA, MetricCPC:
		return true
	case MetricImpressions, MetricClicks, MetricConversions, MetricRevenue,
		MetricCTR, MetricCVR, MetricROAS:
		return false
	}
	return false
}

// Severity of an anomaly or alert. Critical is the most urgent.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank returns the urgency order: lower is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// AtLeast reports whether s is at least as urgent as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() <= min.Rank()
}

// AnomalyType classifies the shape of a detected deviation.
type AnomalyType string

const (
	AnomalySpike         AnomalyType = "spike"
	AnomalyDrop          AnomalyType = "drop"
	AnomalyTrendChange   AnomalyType = "trend_change"
	AnomalyBudgetAnomaly AnomalyType = "budget_anomaly"
)

// DetectionMethod records which signal path produced an anomaly.
type DetectionMethod string

const (
	DetectionDayOverDay DetectionMethod = "day_over_day"
	DetectionBaseline   DetectionMethod = "baseline"
)

// TrendDirection classifies the overall movement of a series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
	TrendVolatile   TrendDirection = "volatile"
)

// Campaign is the minimal campaign identity the core needs.
type Campaign struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KPISnapshot is one day of raw campaign metrics.
type KPISnapshot struct {
	Date        time.Time `json:"date"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Spend       float64   `json:"spend"`
	Conversions int64     `json:"conversions"`
	Revenue     float64   `json:"revenue"`
}

// CTR is the click-through rate (clicks / impressions).
func (s KPISnapshot) CTR() float64 {
	if s.Impressions == 0 {
		return 0
	}
	return float64(s.Clicks) / float64(s.Impressions)
}

// CVR is the conversion rate (conversions / clicks).
func (s KPISnapshot) CVR() float64 {
	if s.Clicks == 0 {
		return 0
	}
	return float64(s.Conversions) / float64(s.Clicks)
}

// CPA is the cost per acquisition (spend / conversions).
func (s KPISnapshot) CPA() float64 {
	if s.Conversions == 0 {
		return 0
	}
	return s.Spend / float64(s.Conversions)
}

// CPC is the cost per click (spend / clicks).
func (s KPISnapshot) CPC() float64 {
	if s.Clicks == 0 {
		return 0
	}
	return s.Spend / float64(s.Clicks)
}

// ROAS is the return on ad spend (revenue / spend).
func (s KPISnapshot) ROAS() float64 {
	if s.Spend == 0 {
		return 0
	}
	return s.Revenue / s.Spend
}

// MetricValue returns the snapshot value for any metric, derived or raw.
func (s KPISnapshot) MetricValue(m Metric) float64 {
	switch m {
	case MetricImpressions:
		return float64(s.Impressions)
	case MetricClicks:
		return float64(s.Clicks)
	case MetricSpend:
		return s.Spend
	case MetricConversions:
		return float64(s.Conversions)
	case MetricRevenue:
		return s.Revenue
	case MetricCTR:
		return s.CTR()
	case MetricCVR:
		return s.CVR()
	case MetricCPA:
		return s.CPA()
	case MetricCPC:
		return s.CPC()
	case MetricROAS:
		return s.ROAS()
	}
	return 0
}

// DataPoint is one dated observation of a single metric.
type DataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Baseline holds summary statistics over a historical metric window.
// Computed fresh per evaluation, never persisted. A zero SampleSize means
// every numeric field is zero and z-score/IQR results are meaningless.
type Baseline struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Median       float64 `json:"median"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	Percentile95 float64 `json:"percentile_95"`
	SampleSize   int     `json:"sample_size"`
}

// Anomaly is a single detected deviation for one campaign metric.
// Immutable after creation.
type Anomaly struct {
	ID              string          `json:"id"`
	CampaignID      string          `json:"campaign_id"`
	CampaignName    string          `json:"campaign_name"`
	Type            AnomalyType     `json:"type"`
	Severity        Severity        `json:"severity"`
	Metric          Metric          `json:"metric"`
	CurrentValue    float64         `json:"current_value"`
	PreviousValue   float64         `json:"previous_value"`
	ChangePercent   float64         `json:"change_percent"`
	Message         string          `json:"message"`
	DetectedAt      time.Time       `json:"detected_at"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	ZScore          float64         `json:"z_score,omitempty"`
	HistoricalTrend TrendDirection  `json:"historical_trend,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

// CauseCategory groups probable causes by origin.
type CauseCategory string

const (
	CauseExternal  CauseCategory = "external"
	CauseInternal  CauseCategory = "internal"
	CauseTechnical CauseCategory = "technical"
	CauseMarket    CauseCategory = "market"
)

// ActionPriority orders recommended actions.
type ActionPriority string

const (
	PriorityCritical ActionPriority = "critical"
	PriorityHigh     ActionPriority = "high"
	PriorityMedium   ActionPriority = "medium"
	PriorityLow      ActionPriority = "low"
)

// Rank returns the priority order: lower is more urgent.
func (p ActionPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// RootCauseAction is one recommended remediation step.
type RootCauseAction struct {
	ID          string         `json:"id"`
	Priority    ActionPriority `json:"priority"`
	Description string         `json:"description"`
}

// PossibleCause is a candidate explanation with supporting evidence.
// Probability is capped at 0.95; the analyzer never claims certainty.
type PossibleCause struct {
	ID          string            `json:"id"`
	Category    CauseCategory     `json:"category"`
	Name        string            `json:"name"`
	Probability float64           `json:"probability"`
	Evidence    []string          `json:"evidence,omitempty"`
	Actions     []RootCauseAction `json:"actions,omitempty"`
}

// RootCauseAnalysis is the ranked explanation for one anomaly.
type RootCauseAnalysis struct {
	Metric       Metric          `json:"metric"`
	TopCauses    []PossibleCause `json:"top_causes"`
	AllCauses    []PossibleCause `json:"all_causes"`
	UrgencyLevel ActionPriority  `json:"urgency_level"`
	Summary      string          `json:"summary"`
	NextSteps    []string        `json:"next_steps"`
}

// ConfigChange records a recent campaign configuration edit for the analyzer.
type ConfigChange struct {
	Field     string    `json:"field"`
	ChangedAt time.Time `json:"changed_at"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
}

// AnalysisContext carries optional contextual signals for root-cause analysis.
type AnalysisContext struct {
	RecentChanges      []ConfigChange `json:"recent_changes,omitempty"`
	TechnicalIssues    bool           `json:"technical_issues"`
	CompetitorActivity bool           `json:"competitor_activity"`
	Industry           string         `json:"industry,omitempty"`
	Date               time.Time      `json:"date,omitempty"`
}

// AlertRecord is one dispatched alert, kept for rate-limit/dedup decisions.
type AlertRecord struct {
	CampaignID string    `json:"campaign_id"`
	Metric     Metric    `json:"metric"`
	Severity   Severity  `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlertRequest is one batch of anomalies to dispatch for a single user.
type AlertRequest struct {
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	UserName  string    `json:"user_name,omitempty"`
	Anomalies []Anomaly `json:"anomalies"`
}

// DispatchResult summarizes one dispatch run. Errors are attributed to
// specific anomalies and never abort the batch.
type DispatchResult struct {
	Sent    []Anomaly `json:"sent"`
	Skipped []Anomaly `json:"skipped"`
	Errors  []string  `json:"errors"`
}

// EmailMessage is the outbound notification payload.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// WatchedMetrics is the evaluation order for detection. Derived ratios come
// after their inputs so operators read raw swings first.
var WatchedMetrics = []Metric{
	MetricImpressions,
	MetricClicks,
	MetricSpend,
	MetricConversions,
	MetricRevenue,
	MetricCTR,
	MetricCVR,
	MetricCPA,
	MetricCPC,
	MetricROAS,
}
