package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers alerts through the Telegram Bot API sendMessage
// endpoint, rendered as MarkdownV2.
type TelegramNotifier struct {
	endpoint string
	chatID   string
	client   *http.Client
}

// NewTelegramNotifier builds a notifier for the given bot token (from
// @BotFather) and target chat or channel ID.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, botToken),
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(telegramMessage{
		ChatID:    t.chatID,
		Text:      renderTelegramText(alert),
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: post: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("telegram: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !reply.OK {
		return fmt.Errorf("telegram: sendMessage failed (status %d): %s", resp.StatusCode, reply.Description)
	}

	log.Printf("[telegram] alert delivered: %s %s", alert.Symbol, alert.Title)
	return nil
}

func renderTelegramText(alert Alert) string {
	head := alert.Title
	if alert.Symbol != "" {
		head = alert.Symbol + ": " + head
	}
	var b strings.Builder
	b.WriteString(levelEmoji(alert.Level))
	b.WriteString(" *")
	b.WriteString(escapeMarkdownV2(head))
	b.WriteString("*\n")
	b.WriteString(escapeMarkdownV2(alert.Message))
	return b.String()
}

func levelEmoji(lv AlertLevel) string {
	switch lv {
	case AlertCritical:
		return "🚨"
	case AlertWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// escapeMarkdownV2 backslash-escapes the characters Telegram's MarkdownV2
// dialect reserves.
func escapeMarkdownV2(s string) string {
	const reserved = "_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(reserved, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
