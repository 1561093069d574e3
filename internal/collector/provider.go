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
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Provider exposes the operating system metrics a snapshot is built from.
// All calls are local and synchronous.
type Provider interface {
	CPUCount(ctx context.Context) (int, error)
	CPUTimes(ctx context.Context) (metrics.CPUTimeStats, error)
	VirtualMemory(ctx context.Context) (metrics.MemoryStats, error)
	Partitions(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	Usage(ctx context.Context, mountpoint string) (*disk.UsageStat, error)
	Hostname(ctx context.Context) (string, error)
	Interfaces(ctx context.Context) (psnet.InterfaceStatList, error)
	Pids(ctx context.Context) ([]int32, error)
	// ProcessCPUTime returns user+system CPU seconds consumed by pid.
	ProcessCPUTime(ctx context.Context, pid int32) (float64, error)
	// Process reads name, resident memory and CPU seconds of pid.
	// Any error means the process vanished or cannot be inspected.
	Process(ctx context.Context, pid int32) (ProcessSample, error)
}

// ProcessSample is the raw per-process reading returned by a Provider.
type ProcessSample struct {
	PID         int32
	Name        string
	RSSBytes    uint64
	CPUSeconds  float64
	LifetimeCPU float64 // Average CPU percent since process start
}

// GopsutilProvider implements Provider on top of gopsutil.
type GopsutilProvider struct{}

// NewGopsutilProvider creates the default provider.
func NewGopsutilProvider() *GopsutilProvider {
	return &GopsutilProvider{}
}

// CPUCount returns the number of logical cores.
func (p *GopsutilProvider) CPUCount(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

// CPUTimes returns CPU times aggregated across all cores.
func (p *GopsutilProvider) CPUTimes(ctx context.Context) (metrics.CPUTimeStats, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return metrics.CPUTimeStats{}, err
	}
	if len(times) == 0 {
		return metrics.CPUTimeStats{}, fmt.Errorf("no CPU time stats available")
	}

	t := times[0]
	return metrics.CPUTimeStats{
		User:    t.User,
		Nice:    t.Nice,
		System:  t.System,
		Idle:    t.Idle,
		IOWait:  t.Iowait,
		Irq:     t.Irq,
		SoftIrq: t.Softirq,
		Steal:   t.Steal,
	}, nil
}

// VirtualMemory returns system memory usage.
func (p *GopsutilProvider) VirtualMemory(ctx context.Context) (metrics.MemoryStats, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return metrics.MemoryStats{}, err
	}
	return metrics.MemoryStats{
		TotalBytes:     v.Total,
		UsedBytes:      v.Used,
		AvailableBytes: v.Available,
		UsedPercent:    v.UsedPercent,
	}, nil
}

// Partitions returns mounted volumes. all=false skips pseudo filesystems.
func (p *GopsutilProvider) Partitions(ctx context.Context, all bool) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, all)
}

// Usage returns space usage for the volume mounted at mountpoint.
func (p *GopsutilProvider) Usage(ctx context.Context, mountpoint string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, mountpoint)
}

// Hostname returns the host name reported by the OS.
func (p *GopsutilProvider) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}

// Interfaces returns network interfaces with their addresses.
func (p *GopsutilProvider) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	return psnet.InterfacesWithContext(ctx)
}

// Pids returns the IDs of running processes.
func (p *GopsutilProvider) Pids(ctx context.Context) ([]int32, error) {
	return process.PidsWithContext(ctx)
}

// ProcessCPUTime returns user+system CPU seconds consumed by pid.
func (p *GopsutilProvider) ProcessCPUTime(ctx context.Context, pid int32) (float64, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, err
	}
	times, err := proc.TimesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return times.User + times.System, nil
}

// Process reads a single process.
func (p *GopsutilProvider) Process(ctx context.Context, pid int32) (ProcessSample, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ProcessSample{}, err
	}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return ProcessSample{}, err
	}

	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessSample{}, err
	}

	times, err := proc.TimesWithContext(ctx)
	if err != nil {
		return ProcessSample{}, err
	}

	lifetime, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		lifetime = 0
	}

	return ProcessSample{
		PID:         pid,
		Name:        name,
		RSSBytes:    memInfo.RSS,
		CPUSeconds:  times.User + times.System,
		LifetimeCPU: lifetime,
	}, nil
}
