package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Telegram posts digests to one chat through the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *logrus.Logger
}

// NewTelegram authorises the bot token against the public Bot API.
func NewTelegram(token string, chatID int64, log *logrus.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, log, nil)
}

// NewTelegramWithEndpoint targets a custom Bot API endpoint, a format
// string taking the token and method name. A nil client uses
// http.DefaultClient.
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, log *logrus.Logger, client tgbotapi.HTTPClient) (*Telegram, error) {
	var (
		api *tgbotapi.BotAPI
		err error
	)
	if client == nil {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	} else {
		api, err = tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	}
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithFields(logrus.Fields{
		"component": "telegram",
		"account":   api.Self.UserName,
		"chat_id":   chatID,
	}).Info("bot authorized")

	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// Notify sends text as HTML, split into several messages when it exceeds
// Telegram's size limit.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("send digest: %w", err)
		}
	}
	t.log.WithFields(logrus.Fields{
		"component": "telegram",
		"chat_id":   t.chatID,
	}).Debug("digest sent")
	return nil
}

// splitMessage cuts text on line boundaries into chunks of at most limit
// runes. A single longer line is cut mid-line.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
