/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
)

const (
	// DefaultAPIURL is the public Bot API endpoint.
	DefaultAPIURL = "https://api.telegram.org"
	// DefaultSendTimeout bounds one sendMessage call.
	DefaultSendTimeout = 10 * time.Second

	userAgent       = "UnoReport/1.0"
	maxResponseBody = 1 << 20
)

// TelegramOption configures a Telegram channel.
type TelegramOption func(*Telegram)

// WithAPIURL points the channel at another Bot API server.
func WithAPIURL(apiURL string) TelegramOption {
	return func(t *Telegram) {
		if apiURL != "" {
			t.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(timeout time.Duration) TelegramOption {
	return func(t *Telegram) {
		if timeout > 0 {
			t.sendTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout should be zero or
// longer than the getUpdates long-poll timeout.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		if client != nil {
			t.client = client
		}
	}
}

// Telegram talks to the Bot API. The token is only ever placed in request
// URLs and is stripped from every returned error.
type Telegram struct {
	token       string
	chatID      string
	apiURL      string
	sendTimeout time.Duration
	client      *http.Client
}

// NewTelegram creates a channel delivering to chatID.
func NewTelegram(token, chatID string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:       token,
		chatID:      chatID,
		apiURL:      DefaultAPIURL,
		sendTimeout: DefaultSendTimeout,
		// Per-call deadlines come from contexts so long polls are not cut short
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Deliver sends text to the configured chat in a single attempt.
func (t *Telegram) Deliver(ctx context.Context, text string, markup Markup) error {
	return t.SendTo(ctx, t.chatID, text, markup)
}

// SendTo sends text to chatID in a single attempt.
func (t *Telegram) SendTo(ctx context.Context, chatID, text string, markup Markup) error {
	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	_, err := t.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: string(markup),
	})
	return err
}

// Update is one entry of a getUpdates reply.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text"`
}

// Chat identifies a conversation.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// User is the sender of a message.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// GetUpdates long-polls for updates with IDs of at least offset. The call
// waits up to wait on the server side.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, wait time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, wait+t.sendTimeout)
	defer cancel()

	raw, err := t.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(wait.Seconds()),
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDelivery, "malformed getUpdates result", err)
	}
	return updates, nil
}

// call posts payload to a Bot API method and returns the raw result.
func (t *Telegram) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", t.apiURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDelivery, "failed to build request", t.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeDelivery, "telegram request failed",
			t.redact(err), map[string]any{"method": method})
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDelivery, "failed to read response", err)
	}

	var envelope apiResponse
	decodeErr := json.Unmarshal(data, &envelope)

	if resp.StatusCode != http.StatusOK || decodeErr != nil || !envelope.OK {
		details := map[string]any{
			"method": method,
			"status": resp.StatusCode,
		}
		if envelope.Description != "" {
			details["description"] = envelope.Description
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			details["retry_after"] = envelope.Parameters.RetryAfter
		}
		msg := fmt.Sprintf("telegram rejected %s with status %d", method, resp.StatusCode)
		if envelope.Description != "" {
			msg += ": " + envelope.Description
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeDelivery, msg, decodeErr, details)
	}

	return envelope.Result, nil
}

// redact drops the request URL from transport errors and masks the token
// anywhere else it might appear.
func (t *Telegram) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	if t.token != "" && strings.Contains(err.Error(), t.token) {
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "<redacted>"))
	}
	return err
}

// String identifies the channel in logs without the token.
func (t *Telegram) String() string {
	return fmt.Sprintf("telegram(chat %s)", t.chatID)
}
