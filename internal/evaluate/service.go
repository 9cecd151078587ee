// Package evaluate is the application facade: it fans detection out over a
// user's campaigns and hands the findings to analysis and dispatch.
package evaluate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/internal/alert"
	"github.com/adwatch/sentinel/internal/detector"
	"github.com/adwatch/sentinel/internal/rootcause"
	"github.com/adwatch/sentinel/models"
)

// Config tunes the evaluation fan-out.
type Config struct {
	// CampaignWorkers bounds parallel campaign evaluations.
	CampaignWorkers int
}

// DefaultConfig returns the stock evaluation settings.
func DefaultConfig() Config {
	return Config{CampaignWorkers: 4}
}

// Service wires the detection core together behind one API.
type Service struct {
	cfg        Config
	campaigns  models.CampaignLister
	detector   *detector.Detector
	analyzer   *rootcause.Analyzer
	dispatcher *alert.Dispatcher
	logger     zerolog.Logger
}

// New creates the service.
func New(cfg Config, campaigns models.CampaignLister, det *detector.Detector, analyzer *rootcause.Analyzer, dispatcher *alert.Dispatcher) *Service {
	if cfg.CampaignWorkers <= 0 {
		cfg.CampaignWorkers = DefaultConfig().CampaignWorkers
	}
	return &Service{
		cfg:        cfg,
		campaigns:  campaigns,
		detector:   det,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		logger:     log.With().Str("component", "evaluate").Logger(),
	}
}

// DetectAnomalies evaluates every active campaign of the user in parallel.
// One campaign's failure never discards the others' findings; its error is
// logged and evaluation continues. Cancellation returns whatever completed.
func (s *Service) DetectAnomalies(ctx context.Context, userID string) ([]models.Anomaly, error) {
	campaigns, err := s.campaigns.ActiveCampaigns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns for user %s: %w", userID, err)
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	sem := make(chan struct{}, s.cfg.CampaignWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []models.Anomaly

	for _, campaign := range campaigns {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(c models.Campaign) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			anomalies, err := s.detector.EvaluateCampaign(ctx, c)
			if err != nil {
				s.logger.Error().Err(err).
					Str("campaign", c.ID).
					Msg("campaign evaluation failed")
				return
			}

			mu.Lock()
			all = append(all, anomalies...)
			mu.Unlock()
		}(campaign)
	}
	wg.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Severity.Rank() != all[j].Severity.Rank() {
			return all[i].Severity.Rank() < all[j].Severity.Rank()
		}
		return all[i].CampaignID < all[j].CampaignID
	})

	s.logger.Info().
		Str("user", userID).
		Int("campaigns", len(campaigns)).
		Int("anomalies", len(all)).
		Msg("detection complete")

	return all, ctx.Err()
}

// DetectCampaignAnomalies evaluates a single campaign.
func (s *Service) DetectCampaignAnomalies(ctx context.Context, campaign models.Campaign) ([]models.Anomaly, error) {
	return s.detector.EvaluateCampaign(ctx, campaign)
}

// AnalyzeRootCause explains one anomaly. analysisCtx may be nil.
func (s *Service) AnalyzeRootCause(anomaly models.Anomaly, analysisCtx *models.AnalysisContext) models.RootCauseAnalysis {
	return s.analyzer.Analyze(anomaly, analysisCtx)
}

// SendAlerts dispatches a batch of anomalies for one user.
func (s *Service) SendAlerts(ctx context.Context, req models.AlertRequest) models.DispatchResult {
	return s.dispatcher.Dispatch(ctx, req)
}
