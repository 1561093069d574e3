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

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// MemoryCollector collects virtual memory usage.
type MemoryCollector struct {
	provider Provider
}

// NewMemoryCollector creates a new memory collector instance.
func NewMemoryCollector(provider Provider) *MemoryCollector {
	return &MemoryCollector{provider: provider}
}

// Collect gathers current memory metrics.
func (m *MemoryCollector) Collect(ctx context.Context) (metrics.MemoryStats, error) {
	stats, err := m.provider.VirtualMemory(ctx)
	if err != nil {
		return metrics.MemoryStats{}, fmt.Errorf("failed to get memory stats: %w", err)
	}

	if stats.TotalBytes == 0 {
		return metrics.MemoryStats{}, fmt.Errorf("total memory is zero")
	}

	return stats, nil
}

// Name returns the collector name for logging purposes.
func (m *MemoryCollector) Name() string {
	return "Memory"
}
