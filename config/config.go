package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel string

	// Detection thresholds
	SpikeThresholdPct        float64 // base day-over-day spike threshold, percent
	DropThresholdPct         float64 // base day-over-day drop threshold, percent (positive number)
	ZScoreThreshold          float64 // |z| at which the baseline path fires
	IQROutlierThreshold      float64 // IQR distance at which the baseline path fires
	MinBaselineSamples       int     // baseline path wins over day-over-day at this sample size
	BaselineWindowDays       int     // history window fed to the baseline calculator
	CriticalMultiplier       float64 // swings at this multiple of the base threshold escalate severity
	TrendGrowthThresholdPct  float64 // half-over-half growth for increasing/decreasing classification
	TrendVolatilityThreshold float64 // coefficient of variation for volatile classification

	// Root cause analysis
	RecentChangeLookbackDays int

	// Alert dispatch
	MinimumSeverity        string
	MaxAlertsPerCampaign   int // per campaign per trailing day
	DedupWindowHours       int
	AlertRetentionHours    int
	AlertsPerSecond        float64 // outbound send flood guard
	EmailTimeoutSeconds    int
	PersistentAlertHistory bool // keep dispatch history in Postgres instead of memory

	// Evaluation
	Industry           string
	CampaignWorkers    int // parallel campaign evaluations per user
	RequestTimeout     int // seconds, KPI reads
	EvaluationYear     int // 0 means the year of the data being evaluated

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Telegram ops channel (optional)
	TelegramBotToken string
	TelegramChatID   int64
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.SpikeThresholdPct = getEnvFloatWithDefault("SPIKE_THRESHOLD_PCT", 30)
	cfg.DropThresholdPct = getEnvFloatWithDefault("DROP_THRESHOLD_PCT", 30)
	cfg.ZScoreThreshold = getEnvFloatWithDefault("ZSCORE_THRESHOLD", 2.5)
	cfg.IQROutlierThreshold = getEnvFloatWithDefault("IQR_OUTLIER_THRESHOLD", 1.5)
	cfg.MinBaselineSamples = getEnvIntWithDefault("MIN_BASELINE_SAMPLES", 7)
	cfg.BaselineWindowDays = getEnvIntWithDefault("BASELINE_WINDOW_DAYS", 30)
	cfg.CriticalMultiplier = getEnvFloatWithDefault("CRITICAL_MULTIPLIER", 1.5)
	cfg.TrendGrowthThresholdPct = getEnvFloatWithDefault("TREND_GROWTH_THRESHOLD_PCT", 15)
	cfg.TrendVolatilityThreshold = getEnvFloatWithDefault("TREND_VOLATILITY_THRESHOLD", 0.8)

	cfg.RecentChangeLookbackDays = getEnvIntWithDefault("RECENT_CHANGE_LOOKBACK_DAYS", 7)

	cfg.MinimumSeverity = getEnvWithDefault("MINIMUM_SEVERITY", "warning")
	cfg.MaxAlertsPerCampaign = getEnvIntWithDefault("MAX_ALERTS_PER_CAMPAIGN", 5)
	cfg.DedupWindowHours = getEnvIntWithDefault("DEDUP_WINDOW_HOURS", 24)
	cfg.AlertRetentionHours = getEnvIntWithDefault("ALERT_RETENTION_HOURS", 24)
	cfg.AlertsPerSecond = getEnvFloatWithDefault("ALERTS_PER_SECOND", 2)
	cfg.EmailTimeoutSeconds = getEnvIntWithDefault("EMAIL_TIMEOUT", 15)
	cfg.PersistentAlertHistory = getEnvBoolWithDefault("PERSISTENT_ALERT_HISTORY", false)

	cfg.Industry = getEnvWithDefault("INDUSTRY", "")
	cfg.CampaignWorkers = getEnvIntWithDefault("CAMPAIGN_WORKERS", 4)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.EvaluationYear = getEnvIntWithDefault("EVALUATION_YEAR", 0)

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "adwatch")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.SMTPHost = getEnvWithDefault("SMTP_HOST", "localhost")
	cfg.SMTPPort = getEnvWithDefault("SMTP_PORT", "587")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPFrom = getEnvWithDefault("SMTP_FROM", "alerts@adwatch.local")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
