package rootcause

import (
	"strings"
	"testing"
	"time"

	"github.com/adwatch/sentinel/models"
)

func testAnomaly(metric models.Metric, changePct float64, severity models.Severity) models.Anomaly {
	typ := models.AnomalySpike
	if changePct < 0 {
		typ = models.AnomalyDrop
	}
	return models.Anomaly{
		ID:            "c1-" + string(metric) + "-1",
		CampaignID:    "c1",
		CampaignName:  "Spring Push",
		Type:          typ,
		Severity:      severity,
		Metric:        metric,
		ChangePercent: changePct,
		DetectedAt:    time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeRanking(t *testing.T) {
	a := New(DefaultConfig())

	analysis := a.Analyze(testAnomaly(models.MetricCPA, 65, models.SeverityCritical), nil)

	if len(analysis.AllCauses) == 0 {
		t.Fatal("expected causes for a CPA spike")
	}
	if len(analysis.TopCauses) > 3 {
		t.Errorf("topCauses = %d, want <= 3", len(analysis.TopCauses))
	}
	if len(analysis.TopCauses) > len(analysis.AllCauses) {
		t.Error("topCauses longer than allCauses")
	}
	for i := 1; i < len(analysis.AllCauses); i++ {
		if analysis.AllCauses[i].Probability > analysis.AllCauses[i-1].Probability {
			t.Fatalf("causes not sorted descending at index %d", i)
		}
	}
	for _, c := range analysis.AllCauses {
		if c.Probability > 0.95 {
			t.Errorf("cause %s probability %v exceeds the 0.95 cap", c.ID, c.Probability)
		}
	}
	if analysis.UrgencyLevel != models.PriorityCritical {
		t.Errorf("urgency = %s, want critical for a critical anomaly", analysis.UrgencyLevel)
	}
}

func TestProbabilityScalesWithMagnitude(t *testing.T) {
	a := New(DefaultConfig())

	small := a.Analyze(testAnomaly(models.MetricCTR, -35, models.SeverityWarning), nil)
	large := a.Analyze(testAnomaly(models.MetricCTR, -90, models.SeverityWarning), nil)

	if large.AllCauses[0].Probability <= small.AllCauses[0].Probability {
		t.Errorf("larger deviation should raise confidence: %v <= %v",
			large.AllCauses[0].Probability, small.AllCauses[0].Probability)
	}
}

func TestContextBoosts(t *testing.T) {
	a := New(DefaultConfig())
	anomaly := testAnomaly(models.MetricConversions, -60, models.SeverityCritical)

	plain := a.Analyze(anomaly, nil)
	boosted := a.Analyze(anomaly, &models.AnalysisContext{TechnicalIssues: true})

	probOf := func(analysis models.RootCauseAnalysis, id string) float64 {
		for _, c := range analysis.AllCauses {
			if c.ID == id {
				return c.Probability
			}
		}
		t.Fatalf("cause %s not found", id)
		return 0
	}

	if probOf(boosted, "tracking_failure") <= probOf(plain, "tracking_failure") {
		t.Error("technicalIssues flag should boost technical causes")
	}

	competitor := a.Analyze(testAnomaly(models.MetricCPA, 70, models.SeverityCritical),
		&models.AnalysisContext{CompetitorActivity: true})
	base := a.Analyze(testAnomaly(models.MetricCPA, 70, models.SeverityCritical), nil)
	if probOf(competitor, "auction_pressure") <= probOf(base, "auction_pressure") {
		t.Error("competitorActivity flag should boost external causes")
	}
}

func TestRecentChangesWindow(t *testing.T) {
	a := New(DefaultConfig())
	anomaly := testAnomaly(models.MetricConversions, -60, models.SeverityCritical)
	detected := anomaly.DetectedAt

	ctx := &models.AnalysisContext{
		Date: detected,
		RecentChanges: []models.ConfigChange{
			{Field: "daily_budget", ChangedAt: detected.AddDate(0, 0, -2), OldValue: "100", NewValue: "300"},
			{Field: "audience", ChangedAt: detected.AddDate(0, 0, -30)}, // stale, must be excluded
		},
	}

	analysis := a.Analyze(anomaly, ctx)

	var recent *models.PossibleCause
	for i := range analysis.AllCauses {
		if analysis.AllCauses[i].ID == "recent_changes" {
			recent = &analysis.AllCauses[i]
		}
	}
	if recent == nil {
		t.Fatal("expected a recent_changes cause")
	}
	if len(recent.Evidence) != 1 {
		t.Fatalf("evidence = %v, want exactly the in-window change", recent.Evidence)
	}
	if !strings.Contains(recent.Evidence[0], "daily_budget") {
		t.Errorf("evidence %q should name the changed field", recent.Evidence[0])
	}

	// no qualifying changes, no cause
	stale := a.Analyze(anomaly, &models.AnalysisContext{
		Date: detected,
		RecentChanges: []models.ConfigChange{
			{Field: "audience", ChangedAt: detected.AddDate(0, 0, -30)},
		},
	})
	for _, c := range stale.AllCauses {
		if c.ID == "recent_changes" {
			t.Error("stale changes must not produce a recent_changes cause")
		}
	}
}

func TestSummaryAndNextSteps(t *testing.T) {
	a := New(DefaultConfig())
	analysis := a.Analyze(testAnomaly(models.MetricROAS, -50, models.SeverityCritical), nil)

	if !strings.Contains(analysis.Summary, "roas") {
		t.Errorf("summary %q should name the metric", analysis.Summary)
	}
	if !strings.Contains(analysis.Summary, "decreased") {
		t.Errorf("summary %q should state the direction", analysis.Summary)
	}
	if !strings.Contains(analysis.Summary, "50.0%") {
		t.Errorf("summary %q should state the magnitude", analysis.Summary)
	}
	if len(analysis.TopCauses) > 0 && !strings.Contains(analysis.Summary, analysis.TopCauses[0].Name) {
		t.Errorf("summary %q should name the top cause", analysis.Summary)
	}

	if len(analysis.NextSteps) == 0 || len(analysis.NextSteps) > 5 {
		t.Fatalf("nextSteps length = %d, want 1..5", len(analysis.NextSteps))
	}
	if !strings.HasPrefix(analysis.NextSteps[0], "[NOW]") {
		t.Errorf("first step %q should carry the most urgent marker", analysis.NextSteps[0])
	}
}

func TestUnmappedMetricFallsBack(t *testing.T) {
	a := New(DefaultConfig())
	// impressions up has no dedicated rule
	analysis := a.Analyze(testAnomaly(models.MetricImpressions, 80, models.SeverityInfo), nil)
	if len(analysis.AllCauses) == 0 {
		t.Fatal("generic fallback should produce at least one cause")
	}
	if analysis.AllCauses[0].ID != "market_fluctuation" {
		t.Errorf("fallback cause = %s, want market_fluctuation", analysis.AllCauses[0].ID)
	}
	if analysis.UrgencyLevel != models.PriorityLow {
		t.Errorf("urgency = %s, want low for an info anomaly with no critical actions", analysis.UrgencyLevel)
	}
}
