// Package detector turns raw KPI snapshots into typed anomaly records.
package detector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/internal/baseline"
	"github.com/adwatch/sentinel/internal/calendar"
	"github.com/adwatch/sentinel/internal/stats"
	"github.com/adwatch/sentinel/models"
)

// Config holds the detection thresholds. All of them are tunable; the zero
// value is not usable, construct with DefaultConfig and override.
type Config struct {
	SpikeThresholdPct   float64
	DropThresholdPct    float64
	ZScoreThreshold     float64
	IQROutlierThreshold float64
	// MinBaselineSamples is the history size at which the baseline path
	// takes precedence over the day-over-day comparison.
	MinBaselineSamples int
	BaselineWindowDays int
	// CriticalMultiplier escalates severity when the swing reaches this
	// multiple of the base threshold.
	CriticalMultiplier float64
	Trend              stats.TrendConfig
	Industry           string
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		SpikeThresholdPct:   30,
		DropThresholdPct:    30,
		ZScoreThreshold:     2.5,
		IQROutlierThreshold: 1.5,
		MinBaselineSamples:  7,
		BaselineWindowDays:  30,
		CriticalMultiplier:  1.5,
		Trend:               stats.DefaultTrendConfig(),
	}
}

// Detector evaluates one campaign at a time against its KPI history.
type Detector struct {
	cfg    Config
	kpi    models.KPIReader
	cal    *calendar.Calendar
	logger zerolog.Logger
}

// New creates a detector bound to a KPI source and a year-scoped calendar.
// cal may be nil to evaluate without seasonal context.
func New(cfg Config, kpi models.KPIReader, cal *calendar.Calendar) *Detector {
	return &Detector{
		cfg:    cfg,
		kpi:    kpi,
		cal:    cal,
		logger: log.With().Str("component", "anomaly_detector").Logger(),
	}
}

// EvaluateCampaign checks every watched metric of a campaign and returns the
// anomalies found, most urgent first. Insufficient data is not an error: the
// metric is simply skipped.
func (d *Detector) EvaluateCampaign(ctx context.Context, campaign models.Campaign) ([]models.Anomaly, error) {
	snaps, err := d.kpi.LatestTwo(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("reading latest snapshots for campaign %s: %w", campaign.ID, err)
	}
	if len(snaps) < 2 {
		d.logger.Debug().Str("campaign", campaign.ID).Msg("fewer than two snapshots, skipping")
		return nil, nil
	}

	prev, latest := snaps[0], snaps[1]

	var anomalies []models.Anomaly
	for _, metric := range models.WatchedMetrics {
		if err := ctx.Err(); err != nil {
			return sortBySeverity(anomalies), err
		}
		if a := d.evaluateMetric(ctx, campaign, metric, prev, latest); a != nil {
			anomalies = append(anomalies, *a)
		}
	}

	return sortBySeverity(anomalies), nil
}

// evaluateMetric runs both detection paths for one metric. The baseline
// z-score/IQR path takes precedence once the history reaches
// MinBaselineSamples; the day-over-day comparison is the sparse-data
// fallback. The day-over-day change percent is always reported as the
// magnitude since that is what operators reason about.
func (d *Detector) evaluateMetric(ctx context.Context, campaign models.Campaign, metric models.Metric, prev, latest models.KPISnapshot) *models.Anomaly {
	prevValue := prev.MetricValue(metric)
	curValue := latest.MetricValue(metric)
	if prevValue == 0 {
		// no reference point; a brand-new or paused campaign is not anomalous
		return nil
	}

	changePct := (curValue - prevValue) / math.Abs(prevValue) * 100
	evalDate := latest.Date

	base := d.baseThreshold(changePct)
	threshold := d.cal.AdjustedThreshold(evalDate, base, metric, changePct > 0, d.cfg.Industry)

	fastFired := math.Abs(changePct) >= threshold

	hist := d.history(ctx, campaign.ID, metric, evalDate)
	bl := baseline.FromSeries(hist)

	var (
		zScore        float64
		baselineFired bool
	)
	if bl.SampleSize >= d.cfg.MinBaselineSamples {
		zScore = stats.ZScore(curValue, bl.Mean, bl.StdDev)
		iqrDist := stats.IQRDistance(curValue, bl.Q1, bl.Q3, bl.IQR)
		baselineFired = math.Abs(zScore) >= d.cfg.ZScoreThreshold || iqrDist > d.cfg.IQROutlierThreshold
	}

	method := models.DetectionDayOverDay
	fired := fastFired
	if bl.SampleSize >= d.cfg.MinBaselineSamples {
		// baseline verdict wins once the sample is rich enough
		method = models.DetectionBaseline
		fired = baselineFired
	}
	if !fired {
		return nil
	}

	// seasonal suppression: an expected swing on a special day is no anomaly
	if d.cal.IsChangeWithinExpectedRange(evalDate, metric, changePct, d.cfg.Industry) {
		d.logger.Debug().
			Str("campaign", campaign.ID).
			Str("metric", string(metric)).
			Float64("change_pct", changePct).
			Msg("change within calendar expected range, suppressed")
		return nil
	}

	anomalyType := classifyType(metric, changePct, method, fastFired)
	severity := classifySeverity(metric, anomalyType, changePct, base, d.cfg.CriticalMultiplier)

	var trend models.TrendDirection
	if len(hist) >= 3 {
		values := make([]float64, 0, len(hist)+1)
		for _, p := range hist {
			values = append(values, p.Value)
		}
		values = append(values, curValue)
		trend = stats.DetectTrend(values, d.cfg.Trend)
	}

	a := &models.Anomaly{
		ID:              fmt.Sprintf("%s-%s-%d", campaign.ID, metric, evalDate.Unix()),
		CampaignID:      campaign.ID,
		CampaignName:    campaign.Name,
		Type:            anomalyType,
		Severity:        severity,
		Metric:          metric,
		CurrentValue:    curValue,
		PreviousValue:   prevValue,
		ChangePercent:   changePct,
		Message:         buildMessage(campaign.Name, metric, anomalyType, changePct, curValue),
		DetectedAt:      evalDate,
		DetectionMethod: method,
		ZScore:          zScore,
		HistoricalTrend: trend,
		Recommendations: recommendationsFor(metric, anomalyType, severity),
	}

	d.logger.Info().
		Str("campaign", campaign.ID).
		Str("metric", string(metric)).
		Str("type", string(a.Type)).
		Str("severity", string(a.Severity)).
		Float64("change_pct", changePct).
		Float64("z_score", zScore).
		Str("method", string(method)).
		Msg("anomaly detected")

	return a
}

// history fetches the metric series for the baseline window, excluding the
// evaluation day itself so the fresh observation is not part of its own
// reference.
func (d *Detector) history(ctx context.Context, campaignID string, metric models.Metric, evalDate time.Time) []models.DataPoint {
	from := evalDate.AddDate(0, 0, -d.cfg.BaselineWindowDays)
	to := evalDate.AddDate(0, 0, -1)

	series, err := d.kpi.SeriesFor(ctx, campaignID, metric, from, to)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("campaign", campaignID).
			Str("metric", string(metric)).
			Msg("failed to read history, falling back to day-over-day only")
		return nil
	}
	return series
}

func (d *Detector) baseThreshold(changePct float64) float64 {
	if changePct >= 0 {
		return d.cfg.SpikeThresholdPct
	}
	return d.cfg.DropThresholdPct
}

func sortBySeverity(anomalies []models.Anomaly) []models.Anomaly {
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Severity.Rank() < anomalies[j].Severity.Rank()
	})
	return anomalies
}
