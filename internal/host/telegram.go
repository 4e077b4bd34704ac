package host

import (
	"area-picker/internal/config"
	"area-picker/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTelegramURL = "https://api.telegram.org/bot"

var ErrNoChatID = errors.New("selection has no chat id")

// TelegramSender delivers selections as bot messages to the chat that opened the mini-app.
type TelegramSender struct {
	config      config.TelegramConfig
	httpClient  *http.Client
	rateLimiter *time.Ticker
}

func NewTelegramSender(cfg config.TelegramConfig) *TelegramSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramURL
	}
	return &TelegramSender{
		config:      cfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: time.NewTicker(500 * time.Millisecond), // max 2 API calls per second
	}
}

func (s *TelegramSender) Close() {
	s.rateLimiter.Stop()
}

func (s *TelegramSender) Send(ctx context.Context, task model.WebhookPayload) error {
	if task.ChatID == 0 {
		return ErrNoChatID
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.rateLimiter.C:
	}

	text, err := MessageText(task.Payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"chat_id": task.ChatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s%s/sendMessage", s.config.BaseURL, s.config.APIToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read API response: %w", err)
	}

	var response struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	if !response.OK {
		return fmt.Errorf("telegram API error: %s", response.Description)
	}
	return nil
}

// MessageText renders the chat message for a selection: a summary line followed by the JSON payload.
func MessageText(p model.SelectionPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal selection payload: %w", err)
	}
	return fmt.Sprintf("📍 %s\n%s\n\n%s", p.AreaName, p.Coordinates, raw), nil
}
