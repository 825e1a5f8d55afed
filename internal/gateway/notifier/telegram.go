package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"finch/internal/strategy"
)

// Telegram 通知器：信号触发时推送到指定群/频道。
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{BotToken: botToken, ChatID: chatID, Client: &http.Client{Timeout: 15 * time.Second}}
}

// NotifySignal 实现 Notifier。
func (t *Telegram) NotifySignal(ctx context.Context, symbol, interval, strategyName string, sig strategy.Signal) error {
	return t.SendText(ctx, FormatSignal(symbol, interval, strategyName, sig))
}

// SendText 发送文本消息（带最多 3 次重试）。
// Bot API 对非 2xx 和 ok=false 都视为失败。
func (t *Telegram) SendText(ctx context.Context, text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return fmt.Errorf("telegram config incomplete")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)

	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			if !sleepCtx(ctx, time.Duration(i+1)*time.Second) {
				return ctx.Err()
			}
			continue
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 && gjson.GetBytes(raw, "ok").Bool() {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d body=%s", resp.StatusCode, gjson.GetBytes(raw, "description").String())
		if !sleepCtx(ctx, time.Duration(i+1)*time.Second) {
			return ctx.Err()
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
