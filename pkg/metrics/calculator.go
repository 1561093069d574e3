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

package metrics

import "sort"

// CalculateCPUUtilization calculates CPU utilization percentage from two CPU time snapshots.
// Formula: 100 * (1 - ΔIdle / ΔTotal)
func CalculateCPUUtilization(prev, current *CPUTimeStats) float64 {
	if prev.Timestamp.IsZero() {
		return 0.0
	}

	deltaTotal := current.total() - prev.total()
	deltaIdle := current.Idle - prev.Idle

	if deltaTotal <= 0 {
		return 0.0
	}

	util := 100.0 * (1.0 - deltaIdle/deltaTotal)
	switch {
	case util < 0:
		return 0.0
	case util > 100:
		return 100.0
	}
	return util
}

func (c *CPUTimeStats) total() float64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait + c.Irq + c.SoftIrq + c.Steal
}

// TopByCPU returns up to n processes ordered by CPU usage, highest first.
// Processes with equal usage keep their discovery order. The input is not modified.
func TopByCPU(procs []ProcessStats, n int) []ProcessStats {
	return topN(procs, n, func(p *ProcessStats) float64 { return p.CPUPercent })
}

// TopByMemory returns up to n processes ordered by memory usage, highest first.
// Processes with equal usage keep their discovery order. The input is not modified.
func TopByMemory(procs []ProcessStats, n int) []ProcessStats {
	return topN(procs, n, func(p *ProcessStats) float64 { return p.MemoryPercent })
}

func topN(procs []ProcessStats, n int, key func(*ProcessStats) float64) []ProcessStats {
	if n <= 0 || len(procs) == 0 {
		return []ProcessStats{}
	}

	sorted := make([]ProcessStats, len(procs))
	copy(sorted, procs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(&sorted[i]) > key(&sorted[j])
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
