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
	"log/slog"
	"sync"
	"time"

	"github.com/phuonguno98/unoreport/internal/config"
	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// Options controls what a snapshot contains.
type Options struct {
	ComputerName      string
	Location          *time.Location // Zone of Snapshot.Timestamp (nil = Local)
	MonitorAllDisks   bool
	IncludeMounts     []string
	ExcludeMounts     []string
	SampleInterval    time.Duration // Window for CPU busy and per-process CPU
	ExternalIPURL     string        // Empty disables the external lookup
	ExternalIPTimeout time.Duration
}

// OptionsFromConfig maps configuration to collector options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ComputerName:      cfg.ComputerName,
		Location:          cfg.Location(),
		MonitorAllDisks:   cfg.MonitorAllDisks,
		IncludeMounts:     cfg.IncludeMounts,
		ExcludeMounts:     cfg.ExcludeMounts,
		SampleInterval:    cfg.CPUSampleInterval,
		ExternalIPURL:     cfg.ExternalIPURL,
		ExternalIPTimeout: cfg.ExternalIPTimeout,
	}
}

// Manager orchestrates all metric collectors into one snapshot.
type Manager struct {
	opts    Options
	cpu     *CPUCollector
	memory  *MemoryCollector
	disk    *DiskCollector
	network *NetworkCollector
	process *ProcessCollector
	logger  *slog.Logger

	// Collectors keep baseline state between the two samples of a snapshot
	mu sync.Mutex
}

// NewManager creates a new collector manager instance.
func NewManager(provider Provider, opts Options, logger *slog.Logger) *Manager {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	var external *ExternalIPResolver
	if opts.ExternalIPURL != "" {
		external = NewExternalIPResolver(opts.ExternalIPURL, opts.ExternalIPTimeout)
	}

	return &Manager{
		opts:    opts,
		cpu:     NewCPUCollector(provider),
		memory:  NewMemoryCollector(provider),
		disk:    NewDiskCollector(provider, opts.MonitorAllDisks, opts.IncludeMounts, opts.ExcludeMounts, logger),
		network: NewNetworkCollector(provider, external, logger),
		process: NewProcessCollector(provider, logger),
		logger:  logger,
	}
}

// Collect assembles a fresh snapshot with up to topN processes per list.
//
// Only a failure of the CPU or memory queries is returned, as an
// OBSERVATION error. Unreadable volumes and processes are omitted and
// unresolvable addresses become metrics.Unavailable.
func (m *Manager) Collect(ctx context.Context, topN int) (*metrics.Snapshot, error) {
	if topN < 1 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "top N must be at least 1")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()

	// Network identity may wait on a remote service; run it alongside the sample window
	networkChan := make(chan metrics.NetworkIdentity, 1)
	go func() {
		networkChan <- m.network.Collect(ctx)
	}()

	if err := m.cpu.Baseline(ctx); err != nil {
		return nil, m.observationError(m.cpu.Name(), err)
	}
	if err := m.process.Baseline(ctx); err != nil {
		m.logger.Warn("Process baseline failed", "error", err)
	}

	if m.opts.SampleInterval > 0 {
		select {
		case <-time.After(m.opts.SampleInterval):
		case <-ctx.Done():
			return nil, m.observationError(m.cpu.Name(), ctx.Err())
		}
	}

	cpuStats, err := m.cpu.Collect(ctx)
	if err != nil {
		return nil, m.observationError(m.cpu.Name(), err)
	}

	memStats, err := m.memory.Collect(ctx)
	if err != nil {
		return nil, m.observationError(m.memory.Name(), err)
	}

	capturedAt := time.Now().In(m.opts.Location)

	disks, err := m.disk.Collect(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect disk metrics", "collector", m.disk.Name(), "error", err)
		disks = []metrics.DiskUsage{}
	}

	procs, err := m.process.Collect(ctx, memStats.TotalBytes)
	if err != nil {
		m.logger.Warn("Failed to collect process metrics", "collector", m.process.Name(), "error", err)
	}

	identity := <-networkChan

	snapshot := &metrics.Snapshot{
		Timestamp:    capturedAt,
		ComputerName: m.opts.ComputerName,
		CPU:          cpuStats,
		Memory:       memStats,
		Disks:        disks,
		Network:      identity,
		TopByCPU:     metrics.TopByCPU(procs, topN),
		TopByMemory:  metrics.TopByMemory(procs, topN),
	}

	m.logger.Debug("Snapshot collected",
		"duration", time.Since(start),
		"cpu", snapshot.CPU.BusyPercent,
		"memory", snapshot.Memory.UsedPercent,
		"disks", len(snapshot.Disks),
		"processes", len(procs),
	)

	return snapshot, nil
}

func (m *Manager) observationError(collector string, err error) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeObservation,
		"metrics provider failed", err, map[string]any{"collector": collector})
}
