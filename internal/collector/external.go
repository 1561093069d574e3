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

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	externalIPUserAgent = "UnoReport/1.0"
	maxExternalIPBody   = 512
)

// ExternalIPResolver asks a public echo service for the host's external address.
// Every call is bounded by the resolver timeout.
type ExternalIPResolver struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewExternalIPResolver creates a resolver for url. The service may answer
// with a bare address or a JSON object holding an "ip" field.
func NewExternalIPResolver(url string, timeout time.Duration) *ExternalIPResolver {
	return &ExternalIPResolver{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Lookup returns the external address or an error when the service is
// unreachable, slow, answers with a non-200 status or a malformed body.
func (r *ExternalIPResolver) Lookup(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", externalIPUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExternalIPBody))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return parseExternalIP(body)
}

// parseExternalIP accepts "203.0.113.7" or {"ip":"203.0.113.7"}.
func parseExternalIP(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))

	if strings.HasPrefix(text, "{") {
		var payload struct {
			IP string `json:"ip"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return "", fmt.Errorf("malformed JSON body: %w", err)
		}
		text = strings.TrimSpace(payload.IP)
	}

	ip := net.ParseIP(text)
	if ip == nil {
		return "", fmt.Errorf("body is not an IP address: %q", truncate(text, 64))
	}
	return ip.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
