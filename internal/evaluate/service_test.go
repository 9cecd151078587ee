package evaluate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adwatch/sentinel/internal/alert"
	"github.com/adwatch/sentinel/internal/detector"
	"github.com/adwatch/sentinel/internal/rootcause"
	"github.com/adwatch/sentinel/models"
)

type fakeBackend struct {
	campaigns []models.Campaign
	snaps     map[string][]models.KPISnapshot
	failFor   map[string]error
}

func (f *fakeBackend) ActiveCampaigns(_ context.Context, _ string) ([]models.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeBackend) LatestTwo(_ context.Context, campaignID string) ([]models.KPISnapshot, error) {
	if err := f.failFor[campaignID]; err != nil {
		return nil, err
	}
	return f.snaps[campaignID], nil
}

func (f *fakeBackend) SeriesFor(_ context.Context, _ string, _ models.Metric, _, _ time.Time) ([]models.DataPoint, error) {
	return nil, nil
}

type fakeEmail struct{ sent int }

func (f *fakeEmail) Send(_ context.Context, _ models.EmailMessage) error {
	f.sent++
	return nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

// spendPair builds two snapshots where only spend moves.
func spendPair(prev, cur float64) []models.KPISnapshot {
	return []models.KPISnapshot{
		{Date: day(16), Spend: prev},
		{Date: day(17), Spend: cur},
	}
}

func newService(backend *fakeBackend, email models.EmailPort) *Service {
	det := detector.New(detector.DefaultConfig(), backend, nil)
	analyzer := rootcause.New(rootcause.DefaultConfig())
	dispCfg := alert.DefaultConfig()
	dispCfg.SendsPerSecond = 10000
	dispatcher := alert.New(dispCfg, alert.NewMemoryHistory(), email, nil)
	return New(DefaultConfig(), backend, det, analyzer, dispatcher)
}

func TestDetectAnomaliesAcrossCampaigns(t *testing.T) {
	backend := &fakeBackend{
		campaigns: []models.Campaign{
			{ID: "c1", Name: "Spiking"},
			{ID: "c2", Name: "Quiet"},
			{ID: "c3", Name: "New"},
		},
		snaps: map[string][]models.KPISnapshot{
			"c1": spendPair(100, 200),
			"c2": spendPair(100, 105),
			"c3": {{Date: day(17), Spend: 100}}, // one day of data only
		},
	}

	svc := newService(backend, &fakeEmail{})
	anomalies, err := svc.DetectAnomalies(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}

	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %d, want 1 (only the doubled spend)", len(anomalies))
	}
	a := anomalies[0]
	if a.CampaignID != "c1" || a.Metric != models.MetricSpend {
		t.Errorf("anomaly = %s/%s, want c1/spend", a.CampaignID, a.Metric)
	}
	if a.Type != models.AnomalyBudgetAnomaly {
		t.Errorf("type = %s, want budget_anomaly", a.Type)
	}
}

func TestDetectAnomaliesIsolatesCampaignFailure(t *testing.T) {
	backend := &fakeBackend{
		campaigns: []models.Campaign{
			{ID: "c1", Name: "Broken"},
			{ID: "c2", Name: "Spiking"},
		},
		snaps: map[string][]models.KPISnapshot{
			"c2": spendPair(100, 200),
		},
		failFor: map[string]error{"c1": errors.New("connection reset")},
	}

	svc := newService(backend, &fakeEmail{})
	anomalies, err := svc.DetectAnomalies(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].CampaignID != "c2" {
		t.Fatalf("anomalies = %+v, want exactly c2's despite c1 failing", anomalies)
	}
}

func TestDetectAnomaliesNoCampaigns(t *testing.T) {
	svc := newService(&fakeBackend{}, &fakeEmail{})
	anomalies, err := svc.DetectAnomalies(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if anomalies != nil {
		t.Errorf("anomalies = %+v, want nil", anomalies)
	}
}

func TestEndToEndDetectAnalyzeDispatch(t *testing.T) {
	backend := &fakeBackend{
		campaigns: []models.Campaign{{ID: "c1", Name: "Spiking"}},
		snaps:     map[string][]models.KPISnapshot{"c1": spendPair(100, 200)},
	}
	email := &fakeEmail{}
	svc := newService(backend, email)

	anomalies, err := svc.DetectAnomalies(context.Background(), "u1")
	if err != nil || len(anomalies) != 1 {
		t.Fatalf("detect: %v, %d anomalies", err, len(anomalies))
	}

	analysis := svc.AnalyzeRootCause(anomalies[0], nil)
	if len(analysis.TopCauses) == 0 {
		t.Error("analysis produced no causes")
	}

	result := svc.SendAlerts(context.Background(), models.AlertRequest{
		UserID:    "u1",
		UserEmail: "user@example.com",
		Anomalies: anomalies,
	})
	if len(result.Sent) != 1 || email.sent != 1 {
		t.Errorf("sent = %d result / %d emails, want 1/1", len(result.Sent), email.sent)
	}
}
