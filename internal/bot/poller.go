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

// Package bot answers operator commands sent to the Telegram chat.
package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/phuonguno98/unoreport/internal/delivery"
	"github.com/phuonguno98/unoreport/internal/report"
	"github.com/phuonguno98/unoreport/internal/scheduler"
	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"github.com/phuonguno98/unoreport/pkg/metrics"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

const (
	// DefaultPollTimeout is the server-side wait of one getUpdates call.
	DefaultPollTimeout = 30 * time.Second
	// DefaultRetryDelay is the pause after a failed getUpdates call.
	DefaultRetryDelay = 5 * time.Second
)

// Client is the Bot API surface the poller needs.
type Client interface {
	GetUpdates(ctx context.Context, offset int64, wait time.Duration) ([]delivery.Update, error)
	SendTo(ctx context.Context, chatID, text string, markup delivery.Markup) error
}

// Dispatcher runs on-demand cycles and reports scheduler state.
type Dispatcher interface {
	TryRunCycle(ctx context.Context, trigger string) (metrics.DeliveryOutcome, error)
	Status() scheduler.Status
}

// Config holds poller settings.
type Config struct {
	ChatID          string // Only messages from this chat are answered
	ComputerName    string
	PollTimeout     time.Duration
	RetryDelay      time.Duration
	TriggerInterval time.Duration // Minimum spacing of /report commands
	TriggerBurst    int
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// Poller long-polls the Bot API and handles /report, /status and /help.
type Poller struct {
	config     Config
	client     Client
	dispatcher Dispatcher
	limiter    *rate.Limiter
	clock      clock.Clock
	logger     *slog.Logger
	offset     int64
}

// NewPoller creates a new poller.
func NewPoller(cfg Config, client Client, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Poller {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.TriggerBurst < 1 {
		cfg.TriggerBurst = 1
	}

	p := &Poller{
		config:     cfg,
		client:     client,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Every(cfg.TriggerInterval), cfg.TriggerBurst),
		clock:      clock.RealClock{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled. Failed polls are retried after RetryDelay.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Starting command poller", "chat_id", p.config.ChatID)

	for {
		if ctx.Err() != nil {
			p.logger.Info("Command poller stopped")
			return nil
		}

		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("Failed to get updates", "error", err, "retry_in", p.config.RetryDelay)
			select {
			case <-ctx.Done():
			case <-p.clock.After(p.config.RetryDelay):
			}
		}
	}
}

// pollOnce fetches one batch of updates and handles them in order.
func (p *Poller) pollOnce(ctx context.Context) error {
	updates, err := p.client.GetUpdates(ctx, p.offset, p.config.PollTimeout)
	if err != nil {
		return err
	}

	for i := range updates {
		p.handleUpdate(ctx, &updates[i])
		p.offset = updates[i].UpdateID + 1
	}
	return nil
}

func (p *Poller) handleUpdate(ctx context.Context, u *delivery.Update) {
	msg := u.Message
	if msg == nil || msg.Text == "" {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if chatID != p.config.ChatID {
		p.logger.Warn("Ignoring message from unknown chat", "chat_id", chatID)
		return
	}

	command := parseCommand(msg.Text)
	if command == "" {
		return
	}
	p.logger.Info("Command received", "command", command)

	var reply string
	switch command {
	case "/report", "/info":
		reply = p.handleReport(ctx)
	case "/status":
		reply = p.statusText()
	case "/help", "/start":
		reply = p.helpText()
	default:
		reply = "Unknown command. Use /help for the list of commands."
	}

	if reply == "" {
		return
	}
	if err := p.client.SendTo(ctx, chatID, reply, delivery.MarkupHTML); err != nil {
		p.logger.Warn("Failed to answer command", "command", command, "error", err)
	}
}

// parseCommand returns "/name" for "/name@bot args", or "" for plain text.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(command)
}

// handleReport runs a cycle. The report itself is the answer, so only
// refusals and failures produce a reply.
func (p *Poller) handleReport(ctx context.Context) string {
	if !p.limiter.Allow() {
		return "Too many report requests. Please try again later."
	}

	outcome, err := p.dispatcher.TryRunCycle(context.WithoutCancel(ctx), "telegram")
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeCycleInProgress) {
			return "A report is already being prepared."
		}
		return fmt.Sprintf("❌ Report failed: %s", html.EscapeString(err.Error()))
	}
	if !outcome.Success {
		return fmt.Sprintf("❌ Report failed (%s). Cycle %s.", outcome.ErrorCode, outcome.CycleID)
	}
	return ""
}

func (p *Poller) statusText() string {
	st := p.dispatcher.Status()

	var sb strings.Builder
	name := p.config.ComputerName
	if name == "" {
		name = "this host"
	}
	fmt.Fprintf(&sb, "✅ <b>%s</b> is online\n", html.EscapeString(name))
	fmt.Fprintf(&sb, "├ Uptime: %s\n", st.Uptime.Round(time.Second))
	if st.NextRun != nil {
		fmt.Fprintf(&sb, "├ Next report: %s\n", st.NextRun.Format(report.TimeLayout))
	}
	if st.CycleActive {
		sb.WriteString("├ A report is being prepared\n")
	}

	switch last := st.LastOutcome; {
	case last == nil:
		sb.WriteString("└ Last report: none yet")
	case last.Success:
		fmt.Fprintf(&sb, "└ Last report: %s delivered", last.AttemptedAt.Format(report.TimeLayout))
	default:
		fmt.Fprintf(&sb, "└ Last report: %s failed (%s)", last.AttemptedAt.Format(report.TimeLayout), last.ErrorCode)
	}
	return sb.String()
}

func (p *Poller) helpText() string {
	schedule := p.dispatcher.Status().Schedule
	return "📖 <b>Commands:</b>\n" +
		"/report - Send a full system report now\n" +
		"/status - Show agent status and the next report time\n" +
		"/help - Show this help\n\n" +
		fmt.Sprintf("Scheduled reports are sent daily at %s.", schedule)
}
