package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/config"
	"github.com/adwatch/sentinel/internal/alert"
	"github.com/adwatch/sentinel/internal/calendar"
	"github.com/adwatch/sentinel/internal/detector"
	"github.com/adwatch/sentinel/internal/evaluate"
	"github.com/adwatch/sentinel/internal/notify"
	"github.com/adwatch/sentinel/internal/rootcause"
	"github.com/adwatch/sentinel/internal/stats"
	"github.com/adwatch/sentinel/internal/storage"
	"github.com/adwatch/sentinel/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	lvl, perr := zerolog.ParseLevel(cfg.LogLevel)
	if perr != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	userID := os.Getenv("USER_ID")
	userEmail := os.Getenv("USER_EMAIL")
	if userID == "" || userEmail == "" {
		log.Fatal().Msg("USER_ID and USER_EMAIL must be set")
	}

	store, err := storage.New(storage.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer store.Close()

	year := cfg.EvaluationYear
	if year == 0 {
		year = time.Now().Year()
	}
	cal := calendar.NewForYear(year)

	detCfg := detector.Config{
		SpikeThresholdPct:   cfg.SpikeThresholdPct,
		DropThresholdPct:    cfg.DropThresholdPct,
		ZScoreThreshold:     cfg.ZScoreThreshold,
		IQROutlierThreshold: cfg.IQROutlierThreshold,
		MinBaselineSamples:  cfg.MinBaselineSamples,
		BaselineWindowDays:  cfg.BaselineWindowDays,
		CriticalMultiplier:  cfg.CriticalMultiplier,
		Trend: stats.TrendConfig{
			GrowthThresholdPct:  cfg.TrendGrowthThresholdPct,
			VolatilityThreshold: cfg.TrendVolatilityThreshold,
		},
		Industry: cfg.Industry,
	}
	det := detector.New(detCfg, store, cal)

	analyzer := rootcause.New(rootcause.Config{
		RecentChangeLookbackDays: cfg.RecentChangeLookbackDays,
	})

	email := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		Timeout:  time.Duration(cfg.EmailTimeoutSeconds) * time.Second,
	})

	var history models.AlertHistoryStore = alert.NewMemoryHistory()
	if cfg.PersistentAlertHistory {
		history = store
	}

	dispatcher := alert.New(alert.Config{
		MinimumSeverity:      models.Severity(cfg.MinimumSeverity),
		MaxAlertsPerCampaign: cfg.MaxAlertsPerCampaign,
		DedupWindow:          time.Duration(cfg.DedupWindowHours) * time.Hour,
		RetentionWindow:      time.Duration(cfg.AlertRetentionHours) * time.Hour,
		SendsPerSecond:       cfg.AlertsPerSecond,
	}, history, email, cal)

	telegram, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifier unavailable, continuing without it")
	}

	svc := evaluate.New(evaluate.Config{CampaignWorkers: cfg.CampaignWorkers}, store, det, analyzer, dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	anomalies, err := svc.DetectAnomalies(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Msg("detection failed")
	}

	for i := range anomalies {
		analysis := svc.AnalyzeRootCause(anomalies[i], &models.AnalysisContext{
			Industry: cfg.Industry,
			Date:     anomalies[i].DetectedAt,
		})
		out, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Printf("%s\n", out)
	}

	result := svc.SendAlerts(ctx, models.AlertRequest{
		UserID:    userID,
		UserEmail: userEmail,
		UserName:  os.Getenv("USER_NAME"),
		Anomalies: anomalies,
	})

	telegram.RunSummary(userID, anomalies, result)

	log.Info().
		Int("anomalies", len(anomalies)).
		Int("sent", len(result.Sent)).
		Int("skipped", len(result.Skipped)).
		Int("errors", len(result.Errors)).
		Msg("evaluation run complete")
}
