package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends operator notifications through the Bot API. A zero value is
// a disabled notifier; Notify becomes a no-op so callers never need to branch.
type Telegram struct {
	BotToken string
	ChatID   string
	TopicID  string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewTelegram(botToken string, chatID string, topicID string, logger *slog.Logger) *Telegram {
	return &Telegram{
		BotToken: strings.TrimSpace(botToken),
		ChatID:   strings.TrimSpace(chatID),
		TopicID:  strings.TrimSpace(topicID),
		Client:   &http.Client{Timeout: 10 * time.Second},
		Logger:   logger,
	}
}

func (t *Telegram) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if !t.Enabled() {
		return nil
	}

	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if t.TopicID != "" {
		payload["message_thread_id"] = t.TopicID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram sendMessage failed: status %d: %s", resp.StatusCode, string(snippet))
	}

	if t.Logger != nil {
		t.Logger.Debug("telegram message sent",
			"event", "telegram_message_sent",
			"module", "internal/platform/notify",
			"layer", "platform",
		)
	}
	return nil
}
