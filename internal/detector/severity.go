package detector

import (
	"fmt"
	"math"

	"github.com/adwatch/sentinel/models"
)

// classifyType maps a breach to an anomaly type. Spend moves are budget
// anomalies regardless of direction; a baseline-only breach without a
// day-over-day jump is a sustained drift, reported as a trend change.
func classifyType(metric models.Metric, changePct float64, method models.DetectionMethod, fastFired bool) models.AnomalyType {
	if metric == models.MetricSpend {
		return models.AnomalyBudgetAnomaly
	}
	if method == models.DetectionBaseline && !fastFired {
		return models.AnomalyTrendChange
	}
	if changePct >= 0 {
		return models.AnomalySpike
	}
	return models.AnomalyDrop
}

// classifySeverity applies the per-metric severity rules:
//   - improvements on value metrics (e.g. a ROAS spike) are informational
//   - CPA spikes and ROAS/conversion/revenue crashes are critical
//   - everything else starts at warning and escalates to critical only on
//     extreme swings (twice the criticalMultiplier over the base threshold)
func classifySeverity(metric models.Metric, typ models.AnomalyType, changePct, baseThreshold, criticalMultiplier float64) models.Severity {
	adverse := isAdverse(metric, changePct)
	if !adverse {
		return models.SeverityInfo
	}

	switch {
	case metric == models.MetricCPA && changePct > 0:
		return models.SeverityCritical
	case (metric == models.MetricROAS || metric == models.MetricConversions || metric == models.MetricRevenue) && changePct < 0:
		return models.SeverityCritical
	}

	if baseThreshold > 0 && math.Abs(changePct) >= baseThreshold*criticalMultiplier*2 {
		return models.SeverityCritical
	}
	return models.SeverityWarning
}

// isAdverse reports whether the change direction hurts the campaign:
// increases on cost metrics, decreases on value metrics.
func isAdverse(metric models.Metric, changePct float64) bool {
	if metric.IsCostMetric() {
		return changePct > 0
	}
	return changePct < 0
}

func buildMessage(campaignName string, metric models.Metric, typ models.AnomalyType, changePct, curValue float64) string {
	direction := "rose"
	if changePct < 0 {
		direction = "fell"
	}
	switch typ {
	case models.AnomalyTrendChange:
		return fmt.Sprintf("%s: %s drifted %.1f%% from its recent baseline (now %.2f)",
			campaignName, metric, changePct, curValue)
	case models.AnomalyBudgetAnomaly:
		return fmt.Sprintf("%s: spend %s %.1f%% day over day (now %.2f)",
			campaignName, direction, math.Abs(changePct), curValue)
	default:
		return fmt.Sprintf("%s: %s %s %.1f%% day over day (now %.2f)",
			campaignName, metric, direction, math.Abs(changePct), curValue)
	}
}

// recommendationsFor returns short operator hints attached to the anomaly.
// The root-cause analyzer produces the full action plan; these are the
// first-look pointers shown inline in notifications.
func recommendationsFor(metric models.Metric, typ models.AnomalyType, severity models.Severity) []string {
	if severity == models.SeverityInfo {
		return []string{"Review what changed and consider scaling the winning setup"}
	}

	var recs []string
	switch metric {
	case models.MetricCPA, models.MetricCPC:
		recs = append(recs, "Check bid strategy and audience targeting for drift")
	case models.MetricROAS, models.MetricRevenue:
		recs = append(recs, "Verify conversion tracking before changing budgets")
	case models.MetricConversions, models.MetricCVR:
		recs = append(recs, "Test the landing page and the conversion pixel end to end")
	case models.MetricCTR:
		recs = append(recs, "Refresh creatives; relevance may be decaying")
	case models.MetricSpend:
		recs = append(recs, "Confirm budget caps and delivery settings")
	case models.MetricImpressions, models.MetricClicks:
		recs = append(recs, "Check delivery status and auction competitiveness")
	}
	if severity == models.SeverityCritical {
		recs = append(recs, "Escalate: review this campaign today")
	}
	return recs
}
