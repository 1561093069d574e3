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

// Package scheduler runs report cycles once or on a daily schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phuonguno98/unoreport/internal/config"
	"github.com/phuonguno98/unoreport/internal/delivery"
	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"github.com/phuonguno98/unoreport/pkg/metrics"
	"k8s.io/utils/clock"
)

// MaxPollInterval is the longest the daily loop sleeps between trigger checks.
const MaxPollInterval = config.MaxPollInterval

// Collector produces one snapshot per call.
type Collector interface {
	Collect(ctx context.Context, topN int) (*metrics.Snapshot, error)
}

// Renderer turns a snapshot into report text.
type Renderer interface {
	Render(s *metrics.Snapshot) string
}

// Options controls what a cycle collects and when the daily loop fires.
type Options struct {
	TopN         int
	Schedule     TimeOfDay
	PollInterval time.Duration
	Markup       delivery.Markup
}

// OptionsFromConfig maps a validated configuration to dispatcher options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	schedule, err := ParseTimeOfDay(cfg.ScheduleTime, cfg.Location())
	if err != nil {
		return Options{}, apperrors.Wrap(apperrors.ErrCodeConfiguration, "invalid schedule_time", err)
	}
	return Options{
		TopN:         cfg.TopN,
		Schedule:     schedule,
		PollInterval: cfg.PollInterval,
		Markup:       delivery.MarkupHTML,
	}, nil
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// Dispatcher owns the collect, render and deliver cycle. At most one
// cycle runs at a time, whichever entry point started it.
type Dispatcher struct {
	collector Collector
	renderer  Renderer
	channel   delivery.Channel
	opts      Options
	clock     clock.Clock
	logger    *slog.Logger

	cycleMu sync.Mutex
	running atomic.Bool

	stateMu   sync.RWMutex
	startedAt time.Time
	nextRun   time.Time
	last      *metrics.DeliveryOutcome
}

// NewDispatcher creates a dispatcher. TopN below 1 falls back to 5 and the
// poll interval is capped at MaxPollInterval.
func NewDispatcher(collector Collector, renderer Renderer, channel delivery.Channel, opts Options, logger *slog.Logger, options ...Option) *Dispatcher {
	if opts.TopN < 1 {
		opts.TopN = config.DefaultTopN
	}
	if opts.PollInterval <= 0 || opts.PollInterval > MaxPollInterval {
		opts.PollInterval = MaxPollInterval
	}

	d := &Dispatcher{
		collector: collector,
		renderer:  renderer,
		channel:   channel,
		opts:      opts,
		clock:     clock.RealClock{},
		logger:    logger,
	}
	for _, opt := range options {
		opt(d)
	}
	d.startedAt = d.clock.Now()
	return d
}

// RunOnce runs a single cycle and returns its outcome. Failures are part
// of the outcome, not an error.
func (d *Dispatcher) RunOnce(ctx context.Context) metrics.DeliveryOutcome {
	return d.RunCycle(ctx)
}

// RunCycle runs one cycle, waiting for any cycle already in progress.
func (d *Dispatcher) RunCycle(ctx context.Context) metrics.DeliveryOutcome {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()
	return d.runCycle(ctx, "")
}

// TryRunCycle runs one cycle unless another is in progress, in which case
// it returns a CYCLE_IN_PROGRESS error without waiting.
func (d *Dispatcher) TryRunCycle(ctx context.Context, trigger string) (metrics.DeliveryOutcome, error) {
	if !d.cycleMu.TryLock() {
		cyclesRejected.Inc()
		return metrics.DeliveryOutcome{}, apperrors.NewWithContext(apperrors.ErrCodeCycleInProgress,
			"a report cycle is already running", map[string]any{"trigger": trigger})
	}
	defer d.cycleMu.Unlock()
	return d.runCycle(ctx, trigger), nil
}

// RunDaily fires one cycle per occurrence of the schedule until ctx is
// cancelled. The trigger is checked every poll interval. A cycle that has
// started is finished even if ctx is cancelled meanwhile.
func (d *Dispatcher) RunDaily(ctx context.Context) error {
	next := d.opts.Schedule.Next(d.clock.Now())
	d.setNextRun(next)

	d.logger.Info("Daily schedule started",
		"schedule", d.opts.Schedule.String(),
		"location", d.opts.Schedule.Location.String(),
		"next_run", next,
		"poll_interval", d.opts.PollInterval,
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Scheduler stopping")
			return nil
		case <-d.clock.After(d.opts.PollInterval):
		}

		// A signal and a tick can arrive together; never start a cycle after shutdown
		if ctx.Err() != nil {
			d.logger.Info("Scheduler stopping")
			return nil
		}

		now := d.clock.Now()
		if now.Before(next) {
			continue
		}

		due := d.opts.Schedule.latestDue(next, now)
		if due.After(next) {
			d.logger.Warn("Missed scheduled runs coalesced", "first_missed", next, "running_for", due)
		}
		if late := now.Sub(due); late > d.opts.PollInterval {
			d.logger.Warn("Scheduled run starts late", "scheduled", due, "late_by", late)
		}

		d.RunCycle(context.WithoutCancel(ctx))

		// Reschedule from the occurrence, not from the start time. An occurrence
		// that passed while the cycle ran fires on the next check.
		next = d.opts.Schedule.latestDue(d.opts.Schedule.Next(due), d.clock.Now())
		d.setNextRun(next)
		d.logger.Info("Next report scheduled", "next_run", next)
	}
}

// runCycle must be called with cycleMu held.
func (d *Dispatcher) runCycle(ctx context.Context, trigger string) metrics.DeliveryOutcome {
	cycleID := uuid.NewString()
	start := d.clock.Now()
	logger := d.logger.With("cycle_id", cycleID)
	if trigger != "" {
		logger = logger.With("trigger", trigger)
	}

	d.running.Store(true)
	defer d.running.Store(false)

	logger.Info("Starting report cycle")

	outcome := metrics.DeliveryOutcome{CycleID: cycleID, AttemptedAt: start}
	err := d.execute(ctx, &outcome)
	duration := d.clock.Since(start)
	cycleDuration.Observe(duration.Seconds())

	if err != nil {
		code := apperrors.CodeOf(err)
		outcome.ErrorCode = string(code)
		outcome.ErrorDetail = err.Error()
		cyclesTotal.WithLabelValues(resultLabel(code)).Inc()
		logger.Error("Report cycle failed",
			"error_code", code,
			"error", err,
			"duration", duration,
		)
	} else {
		outcome.Success = true
		cyclesTotal.WithLabelValues(resultSuccess).Inc()
		lastSuccessTimestamp.Set(float64(outcome.AttemptedAt.Unix()))
		logger.Info("Report delivered", "duration", duration)
	}

	d.stateMu.Lock()
	d.last = &outcome
	d.stateMu.Unlock()

	return outcome
}

// execute collects, renders and delivers. AttemptedAt is moved to the
// delivery attempt when one is made.
func (d *Dispatcher) execute(ctx context.Context, outcome *metrics.DeliveryOutcome) error {
	snapshot, err := d.collector.Collect(ctx, d.opts.TopN)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeInternal {
			err = apperrors.Wrap(apperrors.ErrCodeObservation, "snapshot collection failed", err)
		}
		return err
	}

	text := d.renderer.Render(snapshot)

	outcome.AttemptedAt = d.clock.Now()
	if err := d.channel.Deliver(ctx, text, d.opts.Markup); err != nil {
		if !apperrors.IsCode(err, apperrors.ErrCodeDelivery) {
			err = apperrors.Wrap(apperrors.ErrCodeDelivery, "report delivery failed", err)
		}
		return err
	}
	return nil
}

func resultLabel(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.ErrCodeObservation:
		return resultObservation
	case apperrors.ErrCodeDelivery:
		return resultDelivery
	default:
		return resultError
	}
}

func (d *Dispatcher) setNextRun(t time.Time) {
	d.stateMu.Lock()
	d.nextRun = t
	d.stateMu.Unlock()
	nextRunTimestamp.Set(float64(t.Unix()))
}

// Status is a point-in-time view of the dispatcher.
type Status struct {
	StartedAt   time.Time                `json:"started_at"`
	Uptime      time.Duration            `json:"uptime"`
	Schedule    string                   `json:"schedule"`
	NextRun     *time.Time               `json:"next_run,omitempty"`
	LastOutcome *metrics.DeliveryOutcome `json:"last_outcome,omitempty"`
	CycleActive bool                     `json:"cycle_active"`
}

// Status returns the current state. NextRun is nil outside daily mode.
func (d *Dispatcher) Status() Status {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()

	st := Status{
		StartedAt: d.startedAt,
		Uptime:    d.clock.Since(d.startedAt),
		Schedule:  d.opts.Schedule.String(),
	}
	if !d.nextRun.IsZero() {
		next := d.nextRun
		st.NextRun = &next
	}
	if d.last != nil {
		last := *d.last
		st.LastOutcome = &last
	}
	st.CycleActive = d.running.Load()
	return st
}
