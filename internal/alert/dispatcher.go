// Package alert decides which anomalies warrant outbound notification and
// delivers them without duplicates or floods.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/adwatch/sentinel/internal/calendar"
	"github.com/adwatch/sentinel/models"
)

// Config tunes the dispatch pipeline.
type Config struct {
	MinimumSeverity models.Severity
	// MaxAlertsPerCampaign caps sends per campaign over the trailing day.
	MaxAlertsPerCampaign int
	DedupWindow          time.Duration
	RetentionWindow      time.Duration
	// SendsPerSecond is the outbound flood guard.
	SendsPerSecond float64
}

// DefaultConfig returns the stock dispatch settings.
func DefaultConfig() Config {
	return Config{
		MinimumSeverity:      models.SeverityWarning,
		MaxAlertsPerCampaign: 5,
		DedupWindow:          24 * time.Hour,
		RetentionWindow:      24 * time.Hour,
		SendsPerSecond:       2,
	}
}

// Dispatcher filters, rate-limits, renders and sends alerts for one user's
// anomaly batch. History mutations happen on the caller's goroutine; overlap
// safety for concurrent runs of the same user lives in the history store.
type Dispatcher struct {
	cfg     Config
	history models.AlertHistoryStore
	email   models.EmailPort
	cal     *calendar.Calendar
	limiter *rate.Limiter
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a dispatcher. cal may be nil when no calendar context is
// wanted in notifications.
func New(cfg Config, history models.AlertHistoryStore, email models.EmailPort, cal *calendar.Calendar) *Dispatcher {
	if cfg.SendsPerSecond <= 0 {
		cfg.SendsPerSecond = DefaultConfig().SendsPerSecond
	}
	return &Dispatcher{
		cfg:     cfg,
		history: history,
		email:   email,
		cal:     cal,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), 1),
		logger:  log.With().Str("component", "alert_dispatcher").Logger(),
		now:     time.Now,
	}
}

// Dispatch runs the pipeline over one batch. A failed send is recorded in
// the result and never aborts the rest of the batch. Cancellation stops
// further sends but keeps everything already sent recorded.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.AlertRequest) models.DispatchResult {
	result := models.DispatchResult{}
	now := d.now()

	// retention pruning is batch-wide; the per-anomaly dedup check below
	// deliberately does not refresh surviving records
	if err := d.history.Prune(ctx, now.Add(-d.cfg.RetentionWindow)); err != nil {
		d.logger.Warn().Err(err).Msg("failed to prune alert history")
	}

	for _, anomaly := range req.Anomalies {
		if err := ctx.Err(); err != nil {
			result.Skipped = append(result.Skipped, anomaly)
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s/%s: dispatch cancelled: %v", anomaly.CampaignID, anomaly.Metric, err))
			continue
		}

		if !anomaly.Severity.AtLeast(d.cfg.MinimumSeverity) {
			result.Skipped = append(result.Skipped, anomaly)
			continue
		}

		skip, reason := d.shouldSkip(ctx, anomaly, now)
		if skip {
			d.logger.Debug().
				Str("campaign", anomaly.CampaignID).
				Str("metric", string(anomaly.Metric)).
				Str("reason", reason).
				Msg("alert skipped")
			result.Skipped = append(result.Skipped, anomaly)
			continue
		}

		if err := d.send(ctx, req, anomaly); err != nil {
			result.Skipped = append(result.Skipped, anomaly)
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s/%s: %v", anomaly.CampaignID, anomaly.Metric, err))
			continue
		}

		result.Sent = append(result.Sent, anomaly)
		rec := models.AlertRecord{
			CampaignID: anomaly.CampaignID,
			Metric:     anomaly.Metric,
			Severity:   anomaly.Severity,
			Timestamp:  now,
		}
		if err := d.history.Record(ctx, rec); err != nil {
			d.logger.Warn().Err(err).
				Str("campaign", anomaly.CampaignID).
				Msg("failed to record alert history")
		}
	}

	d.logger.Info().
		Str("user", req.UserID).
		Int("sent", len(result.Sent)).
		Int("skipped", len(result.Skipped)).
		Int("errors", len(result.Errors)).
		Msg("dispatch complete")

	return result
}

// capWindow is the trailing span the per-campaign daily cap counts over,
// independent of the dedup window.
const capWindow = 24 * time.Hour

// shouldSkip applies the rate-limit cap and the dedup window. History read
// errors fail open: better a duplicate alert than a silent outage.
func (d *Dispatcher) shouldSkip(ctx context.Context, anomaly models.Anomaly, now time.Time) (bool, string) {
	window := capWindow
	if d.cfg.DedupWindow > window {
		window = d.cfg.DedupWindow
	}

	recent, err := d.history.Recent(ctx, anomaly.CampaignID, now.Add(-window))
	if err != nil {
		d.logger.Warn().Err(err).
			Str("campaign", anomaly.CampaignID).
			Msg("alert history unavailable, failing open")
		return false, ""
	}

	capCount := 0
	duplicate := false
	for _, rec := range recent {
		if rec.Timestamp.After(now.Add(-capWindow)) {
			capCount++
		}
		if rec.Metric == anomaly.Metric && rec.Timestamp.After(now.Add(-d.cfg.DedupWindow)) {
			duplicate = true
		}
	}
	if capCount >= d.cfg.MaxAlertsPerCampaign {
		return true, "rate_limit"
	}
	if duplicate {
		return true, "dedup"
	}
	return false, ""
}

func (d *Dispatcher) send(ctx context.Context, req models.AlertRequest, anomaly models.Anomaly) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send limiter: %w", err)
	}

	subject, body, err := renderAlert(req.UserName, anomaly, d.calendarNote(anomaly))
	if err != nil {
		return err
	}

	if err := d.email.Send(ctx, models.EmailMessage{
		To:      req.UserEmail,
		Subject: subject,
		HTML:    body,
	}); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// calendarNote describes an active market event around the anomaly date so
// recipients can judge seasonal context.
func (d *Dispatcher) calendarNote(anomaly models.Anomaly) string {
	if d.cal == nil {
		return ""
	}
	events := d.cal.EventsFor(anomaly.DetectedAt)
	if len(events) == 0 {
		return ""
	}
	return fmt.Sprintf("Note: %s is in effect around this date; some movement is expected.", events[0].Name)
}
