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

// Package devices lists mounted volumes and network interfaces so operators
// can write mount filters.
package devices

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phuonguno98/unoreport/internal/collector"
	"github.com/phuonguno98/unoreport/internal/report"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

// Dependency injection points for testing
var (
	diskPartitions = disk.Partitions
	diskUsage      = disk.Usage
	netInterfaces  = net.Interfaces
)

// VolumeInfo represents a mounted volume.
type VolumeInfo struct {
	Device     string
	Mountpoint string
	Filesystem string
	Total      uint64
	Used       uint64
	Readable   bool // Usage could be queried
	Reported   bool // Passes the mount filter and is readable
}

// NetworkInfo represents network interface information.
type NetworkInfo struct {
	Name       string
	MacAddress string
	Addresses  []string
}

// ListVolumes returns every mounted volume, marking the ones a report
// would include under filter.
func ListVolumes(filter *collector.MountFilter) ([]VolumeInfo, error) {
	partitions, err := diskPartitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	volumes := make([]VolumeInfo, 0, len(partitions))
	seen := make(map[string]bool)

	for _, partition := range partitions {
		// Skip duplicate mount points
		if seen[partition.Mountpoint] {
			continue
		}
		seen[partition.Mountpoint] = true

		v := VolumeInfo{
			Device:     partition.Device,
			Mountpoint: partition.Mountpoint,
			Filesystem: partition.Fstype,
		}

		if usage, err := diskUsage(partition.Mountpoint); err == nil && usage != nil {
			v.Total = usage.Total
			v.Used = usage.Used
			v.Readable = true
		}
		v.Reported = v.Readable && filter.Allows(partition.Mountpoint)

		volumes = append(volumes, v)
	}

	// Sort by mount point
	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].Mountpoint < volumes[j].Mountpoint
	})

	return volumes, nil
}

// ListNetworkInterfaces returns a list of available network interfaces.
func ListNetworkInterfaces() ([]NetworkInfo, error) {
	interfaces, err := netInterfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	networks := make([]NetworkInfo, 0)

	for _, iface := range interfaces {
		// Skip interfaces without addresses
		if len(iface.Addrs) == 0 {
			continue
		}

		addresses := make([]string, 0, len(iface.Addrs))
		for _, addr := range iface.Addrs {
			addresses = append(addresses, addr.Addr)
		}

		networks = append(networks, NetworkInfo{
			Name:       iface.Name,
			MacAddress: iface.HardwareAddr,
			Addresses:  addresses,
		})
	}

	// Sort by interface name
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})

	return networks, nil
}

// FormatVolumesTable formats volume information as a table.
func FormatVolumesTable(volumes []VolumeInfo) string {
	var sb strings.Builder

	sb.WriteString("\nMounted Volumes:\n")
	sb.WriteString(strings.Repeat("=", 96))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-24s %-24s %-10s %-14s %-14s %s\n", "MOUNTPOINT", "DEVICE", "FILESYSTEM", "SIZE", "USED", "REPORTED"))
	sb.WriteString(strings.Repeat("-", 96))
	sb.WriteString("\n")

	for _, v := range volumes {
		size, used, reported := "N/A", "N/A", "unreadable"
		if v.Readable {
			size = report.FormatBytes(v.Total)
			used = report.FormatBytes(v.Used)
			reported = "no"
			if v.Reported {
				reported = "yes"
			}
		}

		sb.WriteString(fmt.Sprintf("%-24s %-24s %-10s %-14s %-14s %s\n",
			truncate(v.Mountpoint, 24),
			truncate(v.Device, 24),
			truncate(v.Filesystem, 10),
			size,
			used,
			reported,
		))
	}

	sb.WriteString(strings.Repeat("=", 96))
	sb.WriteString("\n")

	return sb.String()
}

// FormatNetworksTable formats network interface information as a table.
func FormatNetworksTable(networks []NetworkInfo) string {
	var sb strings.Builder

	sb.WriteString("\nNetwork Interfaces:\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-30s %-17s %s\n", "INTERFACE", "MAC ADDRESS", "IP ADDRESSES"))
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteString("\n")

	for _, n := range networks {
		mac := n.MacAddress
		if mac == "" {
			mac = "N/A"
		}

		// Show first IP address on same line
		firstIP := "N/A"
		if len(n.Addresses) > 0 {
			firstIP = n.Addresses[0]
		}

		sb.WriteString(fmt.Sprintf("%-30s %-17s %s\n",
			truncate(n.Name, 30),
			mac,
			firstIP,
		))

		// Show additional IPs on separate lines
		for i := 1; i < len(n.Addresses); i++ {
			sb.WriteString(fmt.Sprintf("%-30s %-17s %s\n", "", "", n.Addresses[i]))
		}
	}

	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")

	return sb.String()
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
