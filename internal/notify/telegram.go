package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/models"
)

// TelegramNotifier posts run summaries to an ops channel. It is optional:
// a nil notifier is safe to call.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier connects the bot. Returns nil with no error when the
// token is empty, so callers can wire it unconditionally.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram").Logger(),
	}, nil
}

// RunSummary posts one line per evaluation run. Failures are logged, not
// returned: the ops channel must never break the pipeline.
func (t *TelegramNotifier) RunSummary(userID string, anomalies []models.Anomaly, result models.DispatchResult) {
	if t == nil {
		return
	}

	critical := 0
	for _, a := range anomalies {
		if a.Severity == models.SeverityCritical {
			critical++
		}
	}

	text := fmt.Sprintf(
		"Evaluation for user %s: %d anomalies (%d critical), %d alerts sent, %d skipped, %d errors",
		userID, len(anomalies), critical, len(result.Sent), len(result.Skipped), len(result.Errors),
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn().Err(err).Msg("failed to post run summary")
	}
}
