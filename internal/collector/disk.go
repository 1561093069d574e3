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
	"os"
	"runtime"
	"strings"

	"github.com/phuonguno98/unoreport/pkg/metrics"
	"github.com/shirou/gopsutil/v3/disk"
)

// MountFilter decides which mount points a report includes.
type MountFilter struct {
	monitorAll    bool     // false = root volume only
	includeMounts []string // Mount points to report (empty = all)
	excludeMounts []string // Mount points to skip
}

// NewMountFilter creates a filter. Mount points are compared after
// trailing separators are stripped.
func NewMountFilter(monitorAll bool, includeMounts, excludeMounts []string) *MountFilter {
	return &MountFilter{
		monitorAll:    monitorAll,
		includeMounts: normalizeMountList(includeMounts),
		excludeMounts: normalizeMountList(excludeMounts),
	}
}

// Allows checks if a mount point should be reported based on the filters.
func (f *MountFilter) Allows(mount string) bool {
	mount = normalizeMountPoint(mount)
	if !f.monitorAll && mount != normalizeMountPoint(rootMountPoint()) {
		return false
	}

	// Check exclude list first
	for _, excluded := range f.excludeMounts {
		if excluded == mount {
			return false
		}
	}

	// If include list is empty, monitor all (except excluded)
	if len(f.includeMounts) == 0 {
		return true
	}

	for _, included := range f.includeMounts {
		if included == mount {
			return true
		}
	}

	return false
}

// DiskCollector collects space usage of mounted volumes.
type DiskCollector struct {
	provider Provider
	filter   *MountFilter
	logger   *slog.Logger
}

// normalizeMountPoint strips a trailing separator so "/data/" and "/data" compare equal.
func normalizeMountPoint(mount string) string {
	if len(mount) > 1 {
		trimmed := strings.TrimRight(mount, `/\`)
		if trimmed == "" {
			return mount[:1]
		}
		// Keep "C:\" distinct from the relative "C:"
		if strings.HasSuffix(trimmed, ":") {
			return trimmed + `\`
		}
		return trimmed
	}
	return mount
}

// normalizeMountList normalizes all mount points in a list.
func normalizeMountList(mounts []string) []string {
	normalized := make([]string, len(mounts))
	for i, mount := range mounts {
		normalized[i] = normalizeMountPoint(mount)
	}
	return normalized
}

// rootMountPoint returns the system volume: "/" or the Windows system drive.
func rootMountPoint() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + `\`
	}
	return "/"
}

// NewDiskCollector creates a new disk collector instance.
// includeMounts: mount points to report (empty = all available)
// excludeMounts: mount points to skip
func NewDiskCollector(provider Provider, monitorAll bool, includeMounts, excludeMounts []string, logger *slog.Logger) *DiskCollector {
	return &DiskCollector{
		provider: provider,
		filter:   NewMountFilter(monitorAll, includeMounts, excludeMounts),
		logger:   logger,
	}
}

// Collect returns usage for every readable volume in discovery order.
// Volumes whose usage cannot be read are omitted; only a failure to
// enumerate partitions is returned as an error.
func (d *DiskCollector) Collect(ctx context.Context) ([]metrics.DiskUsage, error) {
	partitions, err := d.provider.Partitions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	result := make([]metrics.DiskUsage, 0, len(partitions))
	seen := make(map[string]bool)

	for i := range partitions {
		mount := normalizeMountPoint(partitions[i].Mountpoint)

		// Bind mounts and overlays can list the same mount point twice
		if seen[mount] {
			continue
		}
		seen[mount] = true

		if !d.shouldMonitor(mount) {
			continue
		}

		usage, ok := d.readVolume(ctx, &partitions[i])
		if !ok {
			continue
		}
		result = append(result, usage)
	}

	return result, nil
}

// readVolume queries one volume. ok is false when the volume must be omitted.
func (d *DiskCollector) readVolume(ctx context.Context, partition *disk.PartitionStat) (usage metrics.DiskUsage, ok bool) {
	stat, err := d.provider.Usage(ctx, partition.Mountpoint)
	if err != nil {
		d.logger.Debug("Skipping unreadable volume", "mount", partition.Mountpoint, "error", err)
		return metrics.DiskUsage{}, false
	}
	if stat == nil {
		return metrics.DiskUsage{}, false
	}

	fstype := partition.Fstype
	if fstype == "" {
		fstype = stat.Fstype
	}

	return metrics.DiskUsage{
		MountPoint:     partition.Mountpoint,
		FilesystemType: fstype,
		Device:         partition.Device,
		TotalBytes:     stat.Total,
		UsedBytes:      stat.Used,
		FreeBytes:      stat.Free,
		UsedPercent:    stat.UsedPercent,
	}, true
}

func (d *DiskCollector) shouldMonitor(mount string) bool {
	return d.filter.Allows(mount)
}

// Name returns the collector name for logging purposes.
func (d *DiskCollector) Name() string {
	return "Disk"
}
