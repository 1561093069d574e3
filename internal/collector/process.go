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
	"fmt"
	"log/slog"
	"time"

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// ProcessCollector samples per-process CPU and memory usage.
// CPU usage is the share of one core consumed between Baseline and Collect.
type ProcessCollector struct {
	provider  Provider
	prevTimes map[int32]float64 // CPU seconds at baseline
	prevAt    time.Time
	logger    *slog.Logger
}

// NewProcessCollector creates a new process collector instance.
func NewProcessCollector(provider Provider, logger *slog.Logger) *ProcessCollector {
	return &ProcessCollector{
		provider:  provider,
		prevTimes: make(map[int32]float64),
		logger:    logger,
	}
}

// Baseline records CPU seconds of every running process.
func (p *ProcessCollector) Baseline(ctx context.Context) error {
	p.prevTimes = make(map[int32]float64)
	p.prevAt = time.Now()

	pids, err := p.provider.Pids(ctx)
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}

	for _, pid := range pids {
		seconds, err := p.provider.ProcessCPUTime(ctx, pid)
		if err != nil {
			continue
		}
		p.prevTimes[pid] = seconds
	}
	return nil
}

// Collect returns one record per readable process in discovery order.
// Processes that exit or deny access during the walk are left out entirely.
func (p *ProcessCollector) Collect(ctx context.Context, memTotal uint64) ([]metrics.ProcessStats, error) {
	pids, err := p.provider.Pids(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	elapsed := time.Since(p.prevAt).Seconds()
	result := make([]metrics.ProcessStats, 0, len(pids))
	skipped := 0

	for _, pid := range pids {
		stats, ok := p.readProcess(ctx, pid, memTotal, elapsed)
		if !ok {
			skipped++
			continue
		}
		result = append(result, stats)
	}

	if skipped > 0 {
		p.logger.Debug("Skipped unreadable processes", "count", skipped)
	}
	return result, nil
}

// readProcess reads one process. ok is false when the process must be omitted.
func (p *ProcessCollector) readProcess(ctx context.Context, pid int32, memTotal uint64, elapsed float64) (stats metrics.ProcessStats, ok bool) {
	sample, err := p.provider.Process(ctx, pid)
	if err != nil {
		return metrics.ProcessStats{}, false
	}

	cpuPercent := sample.LifetimeCPU
	if prev, seen := p.prevTimes[pid]; seen && elapsed > 0 {
		cpuPercent = (sample.CPUSeconds - prev) / elapsed * 100.0
		if cpuPercent < 0 {
			// PID reused by a new process during the sample window
			cpuPercent = 0
		}
	}

	memPercent := 0.0
	if memTotal > 0 {
		memPercent = float64(sample.RSSBytes) / float64(memTotal) * 100.0
	}

	return metrics.ProcessStats{
		PID:           pid,
		Name:          sample.Name,
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		MemoryBytes:   sample.RSSBytes,
	}, true
}

// Name returns the collector name for logging purposes.
func (p *ProcessCollector) Name() string {
	return "Process"
}
