package notify

import (
	"context"
	"fmt"

	tgbotapi "gopkg.in/telegram-bot-api.v4"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
)

// Notifier delivers a message to one surface
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// LogNotifier writes messages to the structured log
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, m Message) error {
	logger.WithContext(ctx).Info("Notification",
		"source", m.Source,
		"severity", string(m.Severity),
		"urgent", m.Urgent,
		"title", m.Title,
		"body", m.Body,
	)
	return nil
}

// Multi fans a message out to every notifier, collecting failures
type Multi []Notifier

func (mn Multi) Notify(ctx context.Context, m Message) error {
	var errs apperrors.MultiError
	for _, n := range mn {
		if n == nil {
			continue
		}
		errs.Add(n.Notify(ctx, m))
	}
	return errs.ErrorOrNil()
}

const maxMsgLength = 4096

// BotAPI is the part of the Telegram client used for sending
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts messages to a chat; urgent messages go to the
// critical chat when one is configured
type TelegramNotifier struct {
	Bot            BotAPI
	chatID         int64
	criticalChatID int64
}

// NewTelegramNotifier authenticates with token and posts to chatID
func NewTelegramNotifier(token string, chatID, criticalChatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram token is empty", apperrors.ErrInvalidInput)
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramNotifier{Bot: bot, chatID: chatID, criticalChatID: criticalChatID}, nil
}

// ChatFor returns the chat a message is routed to
func (t *TelegramNotifier) ChatFor(m Message) int64 {
	if m.Urgent && t.criticalChatID != 0 {
		return t.criticalChatID
	}
	return t.chatID
}

func (t *TelegramNotifier) Notify(ctx context.Context, m Message) error {
	chatID := t.ChatFor(m)
	for _, part := range splitLongMessage(m.Text()) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.Bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			logger.WithContext(ctx).Error("Error sending message to Telegram", "chat_id", chatID, "error", err)
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// splitLongMessage cuts text into Telegram-sized parts, preferring line breaks
func splitLongMessage(message string) []string {
	if len(message) <= maxMsgLength {
		return []string{message}
	}

	var result []string
	for len(message) > maxMsgLength {
		splitIndex := maxMsgLength
		for splitIndex > 0 && message[splitIndex] != '\n' {
			splitIndex--
		}
		if splitIndex == 0 {
			splitIndex = maxMsgLength
			for splitIndex > 0 && !isRuneStart(message[splitIndex]) {
				splitIndex--
			}
		}

		result = append(result, message[:splitIndex])
		message = message[splitIndex:]
	}
	result = append(result, message)
	return result
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
