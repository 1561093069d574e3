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

// Package report turns a snapshot into the text delivered to the operator.
package report

import (
	"fmt"
	"strings"

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// TimeLayout is the capture time format shown in the header.
const TimeLayout = "02.01.2006 15:04:05"

const (
	branch     = "├"
	lastBranch = "└"
	pipeIndent = "│ "
	lastIndent = "  "
)

// Renderer formats snapshots with a fixed template. It holds no state
// besides its labels, so Render is safe for concurrent use.
type Renderer struct {
	labels Labels
}

// NewRenderer creates a renderer for the given label set.
func NewRenderer(labels Labels) *Renderer {
	return &Renderer{labels: labels}
}

// Render formats s with the English labels.
func Render(s *metrics.Snapshot) string {
	return NewRenderer(English).Render(s)
}

// Render produces the report for s. Output depends only on the snapshot fields.
func (r *Renderer) Render(s *metrics.Snapshot) string {
	var sb strings.Builder
	l := r.labels

	// Header
	fmt.Fprintf(&sb, "📊 <b>%s</b>\n\n", l.Title)
	if s.ComputerName != "" {
		fmt.Fprintf(&sb, "🖥️ <b>%s:</b> %s\n", l.Computer, escape(s.ComputerName))
	}
	fmt.Fprintf(&sb, "🕐 <b>%s:</b> %s\n\n", l.Time, s.Timestamp.Format(TimeLayout))

	// Network
	fmt.Fprintf(&sb, "🌐 <b>%s:</b>\n", l.Network)
	fmt.Fprintf(&sb, "%s %s: %s\n", branch, l.Hostname, escape(s.Network.Hostname))
	fmt.Fprintf(&sb, "%s %s: %s\n", branch, l.LocalIP, escape(s.Network.LocalAddress))
	fmt.Fprintf(&sb, "%s %s: %s\n\n", lastBranch, l.ExternalIP, escape(s.Network.ExternalAddress))

	// CPU
	fmt.Fprintf(&sb, "💻 <b>%s:</b>\n", l.CPU)
	fmt.Fprintf(&sb, "%s %s: %d\n", branch, l.Cores, s.CPU.CoreCount)
	fmt.Fprintf(&sb, "%s %s: %.1f%%\n\n", lastBranch, l.Load, s.CPU.BusyPercent)

	// Memory
	fmt.Fprintf(&sb, "🧠 <b>%s:</b>\n", l.Memory)
	fmt.Fprintf(&sb, "%s %s: %s\n", branch, l.Total, r.bytes(s.Memory.TotalBytes))
	fmt.Fprintf(&sb, "%s %s: %s (%s%%)\n", branch, l.Used, r.bytes(s.Memory.UsedBytes), formatVerbatim(s.Memory.UsedPercent))
	fmt.Fprintf(&sb, "%s %s: %s\n\n", lastBranch, l.Available, r.bytes(s.Memory.AvailableBytes))

	r.writeDisks(&sb, s.Disks)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "⚡ <b>%s:</b>\n", l.TopCPU)
	for i := range s.TopByCPU {
		p := &s.TopByCPU[i]
		fmt.Fprintf(&sb, "%s %s: %.1f%% (PID: %d)\n", prefix(i, len(s.TopByCPU)), escape(p.Name), p.CPUPercent, p.PID)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "🔥 <b>%s:</b>\n", l.TopMemory)
	for i := range s.TopByMemory {
		p := &s.TopByMemory[i]
		mb := float64(p.MemoryBytes) / 1024 / 1024
		fmt.Fprintf(&sb, "%s %s: %.0f %s (%.1f%%)\n", prefix(i, len(s.TopByMemory)), escape(p.Name), mb, l.Units[2], p.MemoryPercent)
	}

	return sb.String()
}

// writeDisks renders the disk tree. An empty list leaves only the header.
func (r *Renderer) writeDisks(sb *strings.Builder, disks []metrics.DiskUsage) {
	l := r.labels
	fmt.Fprintf(sb, "💾 <b>%s:</b>\n", l.Disks)

	for i := range disks {
		d := &disks[i]
		last := i == len(disks)-1
		indent := pipeIndent
		if last {
			indent = lastIndent
		}

		fmt.Fprintf(sb, "%s <b>%s</b>\n", prefix(i, len(disks)), escape(d.MountPoint))
		fmt.Fprintf(sb, "%s%s %s: %s\n", indent, branch, l.Total, r.bytes(d.TotalBytes))
		fmt.Fprintf(sb, "%s%s %s: %s (%s%%)\n", indent, branch, l.Used, r.bytes(d.UsedBytes), formatVerbatim(d.UsedPercent))
		fmt.Fprintf(sb, "%s%s %s: %s\n", indent, lastBranch, l.Free, r.bytes(d.FreeBytes))
		if !last {
			sb.WriteString("\n")
		}
	}
}

func (r *Renderer) bytes(v uint64) string {
	return formatBytes(v, r.labels.Units)
}

// prefix returns the tree branch for item i of n.
func prefix(i, n int) string {
	if i == n-1 {
		return lastBranch
	}
	return branch
}
