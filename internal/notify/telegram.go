package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSender posts the plain-text summary to a Telegram chat.
type TelegramSender struct {
	chatID int64
	client messageSender
	logger *slog.Logger
}

// NewTelegramSender creates a TelegramSender. An empty token or zero chat id
// yields a sender that does nothing.
func NewTelegramSender(token string, chatID int64, logger *slog.Logger) (*TelegramSender, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &TelegramSender{chatID: chatID, logger: logger.With("component", "telegram_sender")}
	if token == "" || chatID == 0 {
		return s, nil
	}

	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	s.client = b
	return s, nil
}

// Name implements Sender.
func (s *TelegramSender) Name() string { return "telegram" }

// Send implements Sender.
func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if s.client == nil {
		s.logger.DebugContext(ctx, "Telegram not configured, skipping")
		return nil
	}

	text := msg.Text
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + text
	}

	if _, err := s.client.SendMessage(ctx, &bot.SendMessageParams{ChatID: s.chatID, Text: text}); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	s.logger.InfoContext(ctx, "Telegram message sent", "chat_id", s.chatID)
	return nil
}
