package models

import (
	"context"
	"time"
)

// KPIReader supplies historical campaign metrics. Implementations own the
// persistence technology; the core only reads.
type KPIReader interface {
	// SeriesFor returns the ordered (oldest first) daily values of one metric
	// over [from, to].
	SeriesFor(ctx context.Context, campaignID string, metric Metric, from, to time.Time) ([]DataPoint, error)
	// LatestTwo returns the two most recent snapshots, oldest first. Fewer
	// than two snapshots is not an error; callers treat it as no data.
	LatestTwo(ctx context.Context, campaignID string) ([]KPISnapshot, error)
}

// CampaignLister enumerates the campaigns a user can be evaluated for.
type CampaignLister interface {
	ActiveCampaigns(ctx context.Context, userID string) ([]Campaign, error)
}

// EmailPort delivers a rendered notification. Retry policy, if any, lives
// behind this port, not in the dispatcher.
type EmailPort interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// AlertHistoryStore keeps the rolling dispatch history used for rate-limit
// and dedup decisions. The default implementation is in-process; a durable
// implementation can be swapped in where restart safety matters.
type AlertHistoryStore interface {
	// Recent returns all records for the campaign newer than since.
	Recent(ctx context.Context, campaignID string, since time.Time) ([]AlertRecord, error)
	// Record appends one dispatched alert.
	Record(ctx context.Context, rec AlertRecord) error
	// Prune drops records older than before across all campaigns.
	Prune(ctx context.Context, before time.Time) error
}
