package detector

import (
	"context"
	"testing"
	"time"

	"github.com/adwatch/sentinel/internal/calendar"
	"github.com/adwatch/sentinel/models"
)

type fakeKPI struct {
	snaps  []models.KPISnapshot
	series map[models.Metric][]float64
}

func (f *fakeKPI) SeriesFor(_ context.Context, _ string, metric models.Metric, _, to time.Time) ([]models.DataPoint, error) {
	vals := f.series[metric]
	pts := make([]models.DataPoint, len(vals))
	for i, v := range vals {
		pts[i] = models.DataPoint{Date: to.AddDate(0, 0, i-len(vals)+1), Value: v}
	}
	return pts, nil
}

func (f *fakeKPI) LatestTwo(_ context.Context, _ string) ([]models.KPISnapshot, error) {
	return f.snaps, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func findAnomaly(anomalies []models.Anomaly, metric models.Metric) *models.Anomaly {
	for i := range anomalies {
		if anomalies[i].Metric == metric {
			return &anomalies[i]
		}
	}
	return nil
}

func newTestDetector(kpi models.KPIReader) *Detector {
	return New(DefaultConfig(), kpi, calendar.NewForYear(2026))
}

func TestInsufficientDataIsNotAnError(t *testing.T) {
	kpi := &fakeKPI{snaps: []models.KPISnapshot{
		{Date: day(2026, time.March, 17), Spend: 100},
	}}
	d := newTestDetector(kpi)

	anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies with one snapshot, got %d", len(anomalies))
	}
}

func TestCPASpikeFlaggedAgainstBaseline(t *testing.T) {
	cpaHistory := []float64{14500, 15500, 14800, 15200, 15000, 14600, 15400, 14900, 15100, 15000}

	t.Run("large jump flagged critical", func(t *testing.T) {
		kpi := &fakeKPI{
			snaps: []models.KPISnapshot{
				{Date: day(2026, time.March, 16), Spend: 15000, Conversions: 1},
				{Date: day(2026, time.March, 17), Spend: 25000, Conversions: 1},
			},
			series: map[models.Metric][]float64{
				models.MetricSpend:       cpaHistory,
				models.MetricCPA:         cpaHistory,
				models.MetricConversions: {1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
			},
		}
		d := newTestDetector(kpi)

		anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cpa := findAnomaly(anomalies, models.MetricCPA)
		if cpa == nil {
			t.Fatal("expected a CPA anomaly")
		}
		if cpa.Severity != models.SeverityCritical {
			t.Errorf("CPA spike severity = %s, want critical", cpa.Severity)
		}
		if cpa.Type != models.AnomalySpike {
			t.Errorf("CPA anomaly type = %s, want spike", cpa.Type)
		}
		if cpa.DetectionMethod != models.DetectionBaseline {
			t.Errorf("detection method = %s, want baseline", cpa.DetectionMethod)
		}
		if cpa.ZScore < 2.5 {
			t.Errorf("z-score = %v, want > 2.5", cpa.ZScore)
		}
	})

	t.Run("small move not flagged", func(t *testing.T) {
		kpi := &fakeKPI{
			snaps: []models.KPISnapshot{
				{Date: day(2026, time.March, 16), Spend: 15000, Conversions: 1},
				{Date: day(2026, time.March, 17), Spend: 15600, Conversions: 1},
			},
			series: map[models.Metric][]float64{
				models.MetricSpend:       cpaHistory,
				models.MetricCPA:         cpaHistory,
				models.MetricConversions: {1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
			},
		}
		d := newTestDetector(kpi)

		anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cpa := findAnomaly(anomalies, models.MetricCPA); cpa != nil {
			t.Errorf("CPA move of +4%% should not be flagged, got %+v", cpa)
		}
	})
}

func TestROASSeverityByDirection(t *testing.T) {
	roasHistory := []float64{2.9, 3.1, 3.0, 2.8, 3.2, 3.0, 2.95, 3.05, 3.1, 2.9}
	revenueHistory := []float64{290, 310, 300, 280, 320, 300, 295, 305, 310, 290}
	spendHistory := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}

	series := map[models.Metric][]float64{
		models.MetricROAS:    roasHistory,
		models.MetricRevenue: revenueHistory,
		models.MetricSpend:   spendHistory,
	}

	t.Run("crash is a critical drop", func(t *testing.T) {
		kpi := &fakeKPI{
			snaps: []models.KPISnapshot{
				{Date: day(2026, time.March, 16), Spend: 100, Revenue: 300},
				{Date: day(2026, time.March, 17), Spend: 100, Revenue: 150},
			},
			series: series,
		}
		d := newTestDetector(kpi)

		anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		roas := findAnomaly(anomalies, models.MetricROAS)
		if roas == nil {
			t.Fatal("expected a ROAS anomaly")
		}
		if roas.Severity != models.SeverityCritical {
			t.Errorf("ROAS -50%% severity = %s, want critical", roas.Severity)
		}
		if roas.Type != models.AnomalyDrop {
			t.Errorf("ROAS anomaly type = %s, want drop", roas.Type)
		}

		// the critical drop must sort ahead of anything informational
		if len(anomalies) > 1 && anomalies[0].Severity.Rank() > anomalies[len(anomalies)-1].Severity.Rank() {
			t.Error("anomalies not sorted most urgent first")
		}
	})

	t.Run("surge is celebratory info", func(t *testing.T) {
		kpi := &fakeKPI{
			snaps: []models.KPISnapshot{
				{Date: day(2026, time.March, 16), Spend: 100, Revenue: 300},
				{Date: day(2026, time.March, 17), Spend: 100, Revenue: 480},
			},
			series: series,
		}
		d := newTestDetector(kpi)

		anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		roas := findAnomaly(anomalies, models.MetricROAS)
		if roas == nil {
			t.Fatal("expected a ROAS anomaly")
		}
		if roas.Severity != models.SeverityInfo {
			t.Errorf("ROAS +60%% severity = %s, want info", roas.Severity)
		}
		if roas.Type != models.AnomalySpike {
			t.Errorf("ROAS anomaly type = %s, want spike", roas.Type)
		}
	})
}

func TestSeasonalSpendSurgeSuppressed(t *testing.T) {
	spendHistory := []float64{98, 102, 100, 97, 103, 99, 101, 100, 102, 98}

	kpi := &fakeKPI{
		snaps: []models.KPISnapshot{
			// Black Friday 2026: +80% spend is inside the expected range
			{Date: day(2026, time.November, 26), Spend: 100},
			{Date: day(2026, time.November, 27), Spend: 180},
		},
		series: map[models.Metric][]float64{
			models.MetricSpend: spendHistory,
		},
	}
	d := newTestDetector(kpi)

	anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spend := findAnomaly(anomalies, models.MetricSpend); spend != nil {
		t.Errorf("expected Black Friday spend surge to be suppressed, got %+v", spend)
	}

	// same surge on an ordinary day is a budget anomaly
	kpi.snaps = []models.KPISnapshot{
		{Date: day(2026, time.March, 16), Spend: 100},
		{Date: day(2026, time.March, 17), Spend: 180},
	}
	anomalies, err = d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spend := findAnomaly(anomalies, models.MetricSpend)
	if spend == nil {
		t.Fatal("expected a spend anomaly on an ordinary day")
	}
	if spend.Type != models.AnomalyBudgetAnomaly {
		t.Errorf("spend anomaly type = %s, want budget_anomaly", spend.Type)
	}
}

func TestSparseHistoryFallsBackToDayOverDay(t *testing.T) {
	kpi := &fakeKPI{
		snaps: []models.KPISnapshot{
			{Date: day(2026, time.March, 16), Spend: 100},
			{Date: day(2026, time.March, 17), Spend: 180},
		},
		series: map[models.Metric][]float64{
			models.MetricSpend: {100, 101}, // below MinBaselineSamples
		},
	}
	d := newTestDetector(kpi)

	anomalies, err := d.EvaluateCampaign(context.Background(), models.Campaign{ID: "c1", Name: "C1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spend := findAnomaly(anomalies, models.MetricSpend)
	if spend == nil {
		t.Fatal("expected a spend anomaly via the fast path")
	}
	if spend.DetectionMethod != models.DetectionDayOverDay {
		t.Errorf("detection method = %s, want day_over_day", spend.DetectionMethod)
	}
}
