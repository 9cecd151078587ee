// Package rootcause maps an anomaly plus contextual signals to ranked
// probable causes and a prioritized action plan.
package rootcause

import (
	"fmt"
	"math"
	"sort"

	"github.com/adwatch/sentinel/models"
)

// probabilityCap is the hard ceiling for any cause: never claim certainty.
const probabilityCap = 0.95

const maxTopCauses = 3
const maxNextSteps = 5

// Config tunes the analyzer.
type Config struct {
	// RecentChangeLookbackDays bounds which config changes count as recent.
	// Older entries are excluded entirely, not down-weighted.
	RecentChangeLookbackDays int
}

// DefaultConfig returns the stock analyzer settings.
func DefaultConfig() Config {
	return Config{RecentChangeLookbackDays: 7}
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// New creates an analyzer.
func New(cfg Config) *Analyzer {
	if cfg.RecentChangeLookbackDays <= 0 {
		cfg.RecentChangeLookbackDays = DefaultConfig().RecentChangeLookbackDays
	}
	return &Analyzer{cfg: cfg}
}

// Analyze produces the ranked explanation for one anomaly. ctx may be nil
// when no contextual signals are available.
func (a *Analyzer) Analyze(anomaly models.Anomaly, ctx *models.AnalysisContext) models.RootCauseAnalysis {
	dir := up
	if anomaly.ChangePercent < 0 {
		dir = down
	}

	scale := magnitudeFactor(anomaly.ChangePercent) * severityFactor(anomaly.Severity)

	var causes []models.PossibleCause
	for _, tpl := range causesFor(anomaly.Metric, dir) {
		cause := models.PossibleCause{
			ID:          tpl.ID,
			Category:    tpl.Category,
			Name:        tpl.Name,
			Probability: cap01(tpl.Base * scale),
			Evidence:    append([]string(nil), tpl.Evidence...),
			Actions:     append([]models.RootCauseAction(nil), tpl.Actions...),
		}
		causes = append(causes, cause)
	}

	causes = a.applyContext(causes, anomaly, ctx)

	sort.SliceStable(causes, func(i, j int) bool {
		return causes[i].Probability > causes[j].Probability
	})

	top := causes
	if len(top) > maxTopCauses {
		top = top[:maxTopCauses]
	}

	return models.RootCauseAnalysis{
		Metric:       anomaly.Metric,
		TopCauses:    top,
		AllCauses:    causes,
		UrgencyLevel: urgencyFor(anomaly, causes),
		Summary:      buildSummary(anomaly, top),
		NextSteps:    buildNextSteps(top),
	}
}

// applyContext boosts category probabilities from contextual flags and adds
// a recent-changes cause when qualifying edits exist.
func (a *Analyzer) applyContext(causes []models.PossibleCause, anomaly models.Anomaly, ctx *models.AnalysisContext) []models.PossibleCause {
	if ctx == nil {
		return causes
	}

	for i := range causes {
		switch causes[i].Category {
		case models.CauseTechnical:
			if ctx.TechnicalIssues {
				causes[i].Probability = cap01(causes[i].Probability + 0.15)
				causes[i].Evidence = append(causes[i].Evidence, "Technical issues were reported for this account")
			}
		case models.CauseExternal:
			if ctx.CompetitorActivity {
				causes[i].Probability = cap01(causes[i].Probability + 0.15)
				causes[i].Evidence = append(causes[i].Evidence, "Competitor activity was flagged in this market")
			}
		case models.CauseInternal, models.CauseMarket:
			// no flag-based boost
		}
	}

	refDate := ctx.Date
	if refDate.IsZero() {
		refDate = anomaly.DetectedAt
	}
	cutoff := refDate.AddDate(0, 0, -a.cfg.RecentChangeLookbackDays)

	var evidence []string
	for _, change := range ctx.RecentChanges {
		if change.ChangedAt.Before(cutoff) || change.ChangedAt.After(refDate) {
			continue
		}
		line := fmt.Sprintf("%s changed on %s", change.Field, change.ChangedAt.Format("2006-01-02"))
		if change.OldValue != "" || change.NewValue != "" {
			line = fmt.Sprintf("%s (%s -> %s)", line, change.OldValue, change.NewValue)
		}
		evidence = append(evidence, line)
	}

	if len(evidence) > 0 {
		prob := cap01(0.5 + 0.08*float64(len(evidence)))
		causes = append(causes, models.PossibleCause{
			ID:          "recent_changes",
			Category:    models.CauseInternal,
			Name:        "Recent campaign configuration changes",
			Probability: prob,
			Evidence:    evidence,
			Actions: []models.RootCauseAction{
				{ID: "review_changes", Priority: models.PriorityCritical, Description: "Review each recent change and revert the most suspicious one"},
			},
		})
	}

	return causes
}

// magnitudeFactor grows confidence with deviation size, from 1.0 toward 1.5.
func magnitudeFactor(changePct float64) float64 {
	m := math.Abs(changePct)
	if m > 100 {
		m = 100
	}
	return 1 + m/200
}

func severityFactor(s models.Severity) float64 {
	switch s {
	case models.SeverityCritical:
		return 1.2
	case models.SeverityWarning:
		return 1.0
	case models.SeverityInfo:
		return 0.8
	}
	return 1.0
}

func cap01(p float64) float64 {
	if p > probabilityCap {
		return probabilityCap
	}
	if p < 0 {
		return 0
	}
	return p
}

// urgencyFor: the anomaly's own severity dominates; otherwise any cause
// carrying a critical action raises urgency to high.
func urgencyFor(anomaly models.Anomaly, causes []models.PossibleCause) models.ActionPriority {
	if anomaly.Severity == models.SeverityCritical {
		return models.PriorityCritical
	}
	for _, c := range causes {
		for _, act := range c.Actions {
			if act.Priority == models.PriorityCritical {
				return models.PriorityHigh
			}
		}
	}
	if anomaly.Severity == models.SeverityWarning {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

func buildSummary(anomaly models.Anomaly, top []models.PossibleCause) string {
	direction := "increased"
	if anomaly.ChangePercent < 0 {
		direction = "decreased"
	}
	summary := fmt.Sprintf("%s %s by %.1f%% on %s for campaign %q.",
		anomaly.Metric, direction, math.Abs(anomaly.ChangePercent),
		anomaly.DetectedAt.Format("2006-01-02"), anomaly.CampaignName)
	if len(top) > 0 {
		summary += fmt.Sprintf(" Most likely cause: %s (%.0f%% confidence).",
			top[0].Name, top[0].Probability*100)
	}
	return summary
}

// buildNextSteps flattens the top causes' actions into at most five steps,
// most urgent first, each tagged with an implied timeframe.
func buildNextSteps(top []models.PossibleCause) []string {
	var actions []models.RootCauseAction
	seen := map[string]bool{}
	for _, c := range top {
		for _, act := range c.Actions {
			if seen[act.ID] {
				continue
			}
			seen[act.ID] = true
			actions = append(actions, act)
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority.Rank() < actions[j].Priority.Rank()
	})
	if len(actions) > maxNextSteps {
		actions = actions[:maxNextSteps]
	}

	steps := make([]string, len(actions))
	for i, act := range actions {
		steps[i] = fmt.Sprintf("%s %s", timeframeMarker(act.Priority), act.Description)
	}
	return steps
}

func timeframeMarker(p models.ActionPriority) string {
	switch p {
	case models.PriorityCritical:
		return "[NOW]"
	case models.PriorityHigh:
		return "[TODAY]"
	case models.PriorityMedium:
		return "[THIS WEEK]"
	case models.PriorityLow:
		return "[WHEN CONVENIENT]"
	}
	return "[THIS WEEK]"
}
