// Package storage implements the persistence ports on PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/models"
)

// Store wraps the database connection and implements KPIReader,
// CampaignLister and AlertHistoryStore.
type Store struct {
	*sql.DB
	logger zerolog.Logger
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New opens a connection, verifies it with retries, and bootstraps the
// schema.
func New(params ConnectionParams) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "storage").Logger()

	// the database is often the last thing up in a fresh deployment
	ping := func() error { return db.Ping() }
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.RetryNotify(ping, policy, func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("database not reachable yet")
	}); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{DB: db, logger: logger}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS kpi_snapshots (
			campaign_id TEXT NOT NULL,
			day DATE NOT NULL,
			impressions BIGINT NOT NULL DEFAULT 0,
			clicks BIGINT NOT NULL DEFAULT 0,
			spend DOUBLE PRECISION NOT NULL DEFAULT 0,
			conversions BIGINT NOT NULL DEFAULT 0,
			revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (campaign_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS alert_history (
			id BIGSERIAL PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			severity TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_campaign
			ON alert_history (campaign_id, sent_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ActiveCampaigns lists the user's campaigns that are still running.
func (s *Store) ActiveCampaigns(ctx context.Context, userID string) ([]models.Campaign, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name
		FROM campaigns
		WHERE user_id = $1 AND status = 'active'
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// SeriesFor returns the ordered daily values of one metric over [from, to].
// Derived metrics are computed from the raw columns per day.
func (s *Store) SeriesFor(ctx context.Context, campaignID string, metric models.Metric, from, to time.Time) ([]models.DataPoint, error) {
	snaps, err := s.snapshots(ctx, campaignID, from, to)
	if err != nil {
		return nil, err
	}

	points := make([]models.DataPoint, len(snaps))
	for i, snap := range snaps {
		points[i] = models.DataPoint{Date: snap.Date, Value: snap.MetricValue(metric)}
	}
	return points, nil
}

// LatestTwo returns the two most recent snapshots, oldest first.
func (s *Store) LatestTwo(ctx context.Context, campaignID string) ([]models.KPISnapshot, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT day, impressions, clicks, spend, conversions, revenue
		FROM kpi_snapshots
		WHERE campaign_id = $1
		ORDER BY day DESC
		LIMIT 2
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	// query is newest first, callers want oldest first
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

func (s *Store) snapshots(ctx context.Context, campaignID string, from, to time.Time) ([]models.KPISnapshot, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT day, impressions, clicks, spend, conversions, revenue
		FROM kpi_snapshots
		WHERE campaign_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day
	`, campaignID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]models.KPISnapshot, error) {
	var snaps []models.KPISnapshot
	for rows.Next() {
		var snap models.KPISnapshot
		if err := rows.Scan(&snap.Date, &snap.Impressions, &snap.Clicks,
			&snap.Spend, &snap.Conversions, &snap.Revenue); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// RecordSnapshot upserts one day of campaign metrics. Ingestion jobs call
// this; the detection core only reads.
func (s *Store) RecordSnapshot(ctx context.Context, campaignID string, snap models.KPISnapshot) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO kpi_snapshots (
			campaign_id, day, impressions, clicks, spend, conversions, revenue
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (campaign_id, day)
		DO UPDATE SET
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			spend = EXCLUDED.spend,
			conversions = EXCLUDED.conversions,
			revenue = EXCLUDED.revenue
	`, campaignID, snap.Date, snap.Impressions, snap.Clicks, snap.Spend, snap.Conversions, snap.Revenue)
	return err
}

// Recent returns the campaign's alert records newer than since.
func (s *Store) Recent(ctx context.Context, campaignID string, since time.Time) ([]models.AlertRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT campaign_id, metric, severity, sent_at
		FROM alert_history
		WHERE campaign_id = $1 AND sent_at > $2
		ORDER BY sent_at
	`, campaignID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AlertRecord
	for rows.Next() {
		var rec models.AlertRecord
		if err := rows.Scan(&rec.CampaignID, &rec.Metric, &rec.Severity, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Record appends one dispatched alert.
func (s *Store) Record(ctx context.Context, rec models.AlertRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO alert_history (campaign_id, metric, severity, sent_at)
		VALUES ($1, $2, $3, $4)
	`, rec.CampaignID, rec.Metric, rec.Severity, rec.Timestamp)
	return err
}

// Prune drops alert records at or before the cutoff across all campaigns.
func (s *Store) Prune(ctx context.Context, before time.Time) error {
	_, err := s.ExecContext(ctx, `
		DELETE FROM alert_history WHERE sent_at <= $1
	`, before)
	return err
}
