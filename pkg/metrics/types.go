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

import "time"

// Unavailable marks a network identity field that could not be determined.
const Unavailable = "unavailable"

// Snapshot represents one capture of the host state at a specific time.
// A Snapshot is never modified after the collector returns it.
type Snapshot struct {
	Timestamp    time.Time
	ComputerName string // Display name from configuration (optional)
	CPU          CPUStats
	Memory       MemoryStats
	Disks        []DiskUsage // Readable volumes in discovery order
	Network      NetworkIdentity
	TopByCPU     []ProcessStats // Sorted descending by CPUPercent
	TopByMemory  []ProcessStats // Sorted descending by MemoryPercent
}

// CPUStats represents processor load.
type CPUStats struct {
	CoreCount   int     // Logical cores, >= 1
	BusyPercent float64 // [0, 100]
}

// MemoryStats represents virtual memory usage.
type MemoryStats struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
	UsedPercent    float64
}

// DiskUsage represents space usage for a single mounted volume.
type DiskUsage struct {
	MountPoint     string
	FilesystemType string
	Device         string
	TotalBytes     uint64
	UsedBytes      uint64
	FreeBytes      uint64
	UsedPercent    float64
}

// NetworkIdentity describes how the host is reachable.
// Addresses that could not be resolved hold Unavailable.
type NetworkIdentity struct {
	Hostname        string
	LocalAddress    string
	ExternalAddress string
}

// ProcessStats represents resource usage of a single process.
type ProcessStats struct {
	PID           int32
	Name          string
	CPUPercent    float64
	MemoryPercent float64
	MemoryBytes   uint64 // Resident set size
}

// DeliveryOutcome records the result of one report cycle. It is logged and
// only the latest one is kept in memory.
type DeliveryOutcome struct {
	CycleID     string    `json:"cycle_id"`
	AttemptedAt time.Time `json:"attempted_at"`
	Success     bool      `json:"success"`
	ErrorCode   string    `json:"error_code,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

// CPUTimeStats represents CPU time statistics for delta calculations.
type CPUTimeStats struct {
	User      float64
	Nice      float64
	System    float64
	Idle      float64
	IOWait    float64
	Irq       float64
	SoftIrq   float64
	Steal     float64
	Timestamp time.Time
}
