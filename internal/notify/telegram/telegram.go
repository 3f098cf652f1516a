package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/MustafAks/DexScreener/internal/notify"
	"github.com/MustafAks/DexScreener/internal/utils/request"
)

const DefaultBaseURL = "https://api.telegram.org"

var _ notify.Notifier = (*TelegramNotifier)(nil)

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// TelegramNotifier posts messages through the Bot API sendMessage method.
type TelegramNotifier struct {
	baseURL    string
	botToken   string
	httpClient *resty.Client
}

func NewTelegramNotifier(baseURL, botToken string, httpClient *resty.Client) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = request.Request
	}
	return &TelegramNotifier{
		baseURL:    baseURL,
		botToken:   botToken,
		httpClient: httpClient,
	}
}

// Send implements notify.Notifier; channel is the chat id.
func (t *TelegramNotifier) Send(ctx context.Context, channel, message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ChatID:                channel,
			Text:                  message,
			DisableWebPagePreview: true,
		}).
		Post(url)
	if err != nil {
		// the url carries the bot token, keep it out of the error
		return fmt.Errorf("failed to send message: %w", redact(err, t.botToken))
	}

	var result apiResponse
	decodeErr := json.Unmarshal(resp.Body(), &result)

	if resp.StatusCode() != http.StatusOK {
		if decodeErr == nil && result.Description != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), result.Description)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}

	return nil
}
