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

import (
	"math"
	"testing"
	"time"
)

func TestCalculateCPUUtilization(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		prev     CPUTimeStats
		current  CPUTimeStats
		expected float64
	}{
		{
			name: "Normal usage",
			prev: CPUTimeStats{
				User: 100, System: 50, Idle: 800, IOWait: 10,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 110, System: 60, Idle: 810, IOWait: 15, // Deltas: U:10, S:10, I:10, IO:5 -> Total: 35
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 71.42857142857143,
		},
		{
			name: "Nice time counts as busy",
			prev: CPUTimeStats{
				User: 0, Nice: 0, Idle: 0,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 10, Nice: 10, Idle: 20,
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 50.0,
		},
		{
			name: "Zero timestamp (First run)",
			prev: CPUTimeStats{},
			current: CPUTimeStats{
				User:      100,
				Timestamp: now,
			},
			expected: 0.0,
		},
		{
			name: "No change (Zero delta total)",
			prev: CPUTimeStats{
				User: 100, Idle: 100,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 100, Idle: 100,
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 0.0,
		},
		{
			name: "Fully idle interval",
			prev: CPUTimeStats{
				User: 100, Idle: 10,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 100, Idle: 30,
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCPUUtilization(&tt.prev, &tt.current)
			if math.Abs(got-tt.expected) > 0.00001 {
				t.Errorf("CalculateCPUUtilization() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func sampleProcesses() []ProcessStats {
	return []ProcessStats{
		{PID: 1, Name: "init", CPUPercent: 0.5, MemoryPercent: 0.1},
		{PID: 20, Name: "postgres", CPUPercent: 12.0, MemoryPercent: 8.0},
		{PID: 30, Name: "nginx", CPUPercent: 3.0, MemoryPercent: 8.0},
		{PID: 40, Name: "java", CPUPercent: 12.0, MemoryPercent: 25.0},
		{PID: 50, Name: "sshd", CPUPercent: 0.0, MemoryPercent: 0.3},
	}
}

func pids(procs []ProcessStats) []int32 {
	out := make([]int32, len(procs))
	for i, p := range procs {
		out[i] = p.PID
	}
	return out
}

func equalPIDs(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTopByCPU(t *testing.T) {
	tests := []struct {
		name  string
		procs []ProcessStats
		n     int
		want  []int32
	}{
		{"Stable ties keep discovery order", sampleProcesses(), 3, []int32{20, 40, 30}},
		{"N larger than list", sampleProcesses(), 10, []int32{20, 40, 30, 1, 50}},
		{"Single entry", sampleProcesses(), 1, []int32{20}},
		{"Empty input", nil, 5, []int32{}},
		{"Zero N", sampleProcesses(), 0, []int32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopByCPU(tt.procs, tt.n)
			if !equalPIDs(pids(got), tt.want) {
				t.Errorf("TopByCPU() = %v, want %v", pids(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].CPUPercent < got[i].CPUPercent {
					t.Errorf("TopByCPU() not descending at %d: %v < %v", i, got[i-1].CPUPercent, got[i].CPUPercent)
				}
			}
		})
	}
}

func TestTopByMemory(t *testing.T) {
	procs := sampleProcesses()
	got := TopByMemory(procs, 3)

	want := []int32{40, 20, 30}
	if !equalPIDs(pids(got), want) {
		t.Errorf("TopByMemory() = %v, want %v", pids(got), want)
	}

	// Input order must be untouched
	if !equalPIDs(pids(procs), []int32{1, 20, 30, 40, 50}) {
		t.Errorf("TopByMemory() modified its input: %v", pids(procs))
	}
}
