package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Poster 定义社交渠道的发布接口。
type Poster interface {
	Post(ctx context.Context, caption string, image []byte) (string, error)
}

// TelegramPoster 通过 Telegram Bot API 发布买入播报。
type TelegramPoster struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramPoster 构造 Telegram 发布器。
func NewTelegramPoster(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramPoster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramPoster{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram_poster").Logger(),
	}
}

// Post publishes the caption, attaching the buy card when one is provided.
// Returns the published message identifier.
func (p *TelegramPoster) Post(ctx context.Context, caption string, image []byte) (string, error) {
	if len(image) == 0 {
		return p.sendMessage(ctx, caption)
	}
	return p.sendPhoto(ctx, caption, image)
}

func (p *TelegramPoster) sendMessage(ctx context.Context, text string) (string, error) {
	payload := map[string]string{
		"chat_id": p.chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, p.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return p.do(req)
}

func (p *TelegramPoster) sendPhoto(ctx context.Context, caption string, image []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("chat_id", p.chatID); err != nil {
		return "", fmt.Errorf("write chat_id field: %w", err)
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return "", fmt.Errorf("write caption field: %w", err)
	}
	part, err := writer.CreateFormFile("photo", "buy.png")
	if err != nil {
		return "", fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write photo bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", p.baseURL, p.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return p.do(req)
}

func (p *TelegramPoster) do(req *http.Request) (string, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode telegram response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("telegram 返回 ok=false")
	}

	id := strconv.FormatInt(result.Result.MessageID, 10)
	p.logger.Info().Str("message_id", id).Msg("买入播报已发送 (Telegram)")
	return id, nil
}

var _ Poster = (*TelegramPoster)(nil)
