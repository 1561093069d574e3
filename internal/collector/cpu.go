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
	"time"

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// CPUCollector measures processor load between a baseline and a later sample.
type CPUCollector struct {
	provider  Provider
	prevStats metrics.CPUTimeStats
}

// NewCPUCollector creates a new CPU collector instance.
func NewCPUCollector(provider Provider) *CPUCollector {
	return &CPUCollector{provider: provider}
}

// Baseline records the CPU times the next Collect call is compared against.
func (c *CPUCollector) Baseline(ctx context.Context) error {
	stats, err := c.provider.CPUTimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to get CPU stats: %w", err)
	}
	stats.Timestamp = time.Now()
	c.prevStats = stats
	return nil
}

// Collect returns the core count and the busy percentage since Baseline.
func (c *CPUCollector) Collect(ctx context.Context) (metrics.CPUStats, error) {
	count, err := c.provider.CPUCount(ctx)
	if err != nil {
		return metrics.CPUStats{}, fmt.Errorf("failed to get CPU count: %w", err)
	}
	if count < 1 {
		count = 1
	}

	current, err := c.provider.CPUTimes(ctx)
	if err != nil {
		return metrics.CPUStats{}, fmt.Errorf("failed to get CPU stats: %w", err)
	}
	current.Timestamp = time.Now()

	busy := metrics.CalculateCPUUtilization(&c.prevStats, &current)
	c.prevStats = current

	return metrics.CPUStats{
		CoreCount:   count,
		BusyPercent: busy,
	}, nil
}

// Name returns the collector name for logging purposes.
func (c *CPUCollector) Name() string {
	return "CPU"
}
