package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

var ErrTelegramTokenMissing = errors.New("telegram bot token missing")

type TelegramOptions struct {
	Token string
	// URL overrides the Bot API endpoint.
	URL string
	// Poll enables the long poller that answers /start with the chat id.
	Poll bool
}

// TelegramBot delivers reminders and tells users which chat id to link.
type TelegramBot struct {
	bot    *telebot.Bot
	logger *zap.Logger
	poll   bool
}

func NewTelegramBot(options TelegramOptions, logger *zap.Logger) (*TelegramBot, error) {
	token := strings.TrimSpace(options.Token)
	if token == "" {
		return nil, ErrTelegramTokenMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("telegram")

	settings := telebot.Settings{
		Token:   token,
		URL:     options.URL,
		Offline: !options.Poll,
		OnError: func(err error, c telebot.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Chat() != nil {
				fields = append(fields, zap.Int64("chat_id", c.Chat().ID))
			}
			logger.Warn("telegram handler failed", fields...)
		},
	}
	if options.Poll {
		settings.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
	}

	bot, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	telegram := &TelegramBot{bot: bot, logger: logger, poll: options.Poll}
	bot.Handle("/start", telegram.handleStart)
	return telegram, nil
}

func (telegram *TelegramBot) handleStart(c telebot.Context) error {
	return c.Send(fmt.Sprintf("Your chat id is %d. Save it in Cyclecast settings to receive reminders.", c.Chat().ID))
}

// Send implements services.ReminderSender.
func (telegram *TelegramBot) Send(ctx context.Context, chatID int64, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := telegram.bot.Send(&telebot.Chat{ID: chatID}, message); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Run polls for bot commands until ctx is done. Without polling it only waits.
func (telegram *TelegramBot) Run(ctx context.Context) error {
	if !telegram.poll {
		<-ctx.Done()
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		telegram.bot.Start()
	}()
	telegram.logger.Info("telegram poller started")

	<-ctx.Done()
	telegram.bot.Stop()
	<-done
	telegram.logger.Info("telegram poller stopped")
	return nil
}
