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

package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

const gib = 1024 * 1024 * 1024

func sampleSnapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Timestamp:    time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC),
		ComputerName: "web-01 <prod>",
		CPU:          metrics.CPUStats{CoreCount: 8, BusyPercent: 12.34},
		Memory: metrics.MemoryStats{
			TotalBytes:     16 * gib,
			UsedBytes:      4 * gib,
			AvailableBytes: 12 * gib,
			UsedPercent:    25,
		},
		Disks: []metrics.DiskUsage{
			{MountPoint: "/", FilesystemType: "ext4", TotalBytes: 100 * gib, UsedBytes: 40 * gib, FreeBytes: 60 * gib, UsedPercent: 40.5},
		},
		Network: metrics.NetworkIdentity{
			Hostname:        "web-01",
			LocalAddress:    "10.0.0.5",
			ExternalAddress: metrics.Unavailable,
		},
		TopByCPU: []metrics.ProcessStats{
			{PID: 200, Name: "postgres", CPUPercent: 45.67},
			{PID: 300, Name: "nginx", CPUPercent: 12.0},
			{PID: 1, Name: "cron", CPUPercent: 0.04},
		},
		TopByMemory: []metrics.ProcessStats{
			{PID: 200, Name: "postgres", MemoryBytes: gib, MemoryPercent: 6.3},
			{PID: 300, Name: "nginx", MemoryBytes: 256 * 1024 * 1024, MemoryPercent: 1.6},
		},
	}
}

func TestRender_Golden(t *testing.T) {
	want := `📊 <b>System Status Report</b>

🖥️ <b>Computer:</b> web-01 &lt;prod&gt;
🕐 <b>Time:</b> 14.03.2026 09:05:07

🌐 <b>Network:</b>
├ Hostname: web-01
├ Local IP: 10.0.0.5
└ External IP: unavailable

💻 <b>Processor:</b>
├ Cores: 8
└ Load: 12.3%

🧠 <b>Memory:</b>
├ Total: 16.00 GB
├ Used: 4.00 GB (25.0%)
└ Available: 12.00 GB

💾 <b>Disks:</b>
└ <b>/</b>
  ├ Total: 100.00 GB
  ├ Used: 40.00 GB (40.5%)
  └ Free: 60.00 GB

⚡ <b>Top processes (CPU):</b>
├ postgres: 45.7% (PID: 200)
├ nginx: 12.0% (PID: 300)
└ cron: 0.0% (PID: 1)

🔥 <b>Top processes (Memory):</b>
├ postgres: 1024 MB (6.3%)
└ nginx: 256 MB (1.6%)
`

	if got := Render(sampleSnapshot()); got != want {
		t.Errorf("Render() mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRender_Deterministic(t *testing.T) {
	a := Render(sampleSnapshot())
	b := Render(sampleSnapshot())
	if a != b {
		t.Error("structurally equal snapshots rendered differently")
	}
}

// diskSection returns the lines between the disk header and the next section.
func diskSection(t *testing.T, report string) []string {
	t.Helper()
	start := strings.Index(report, "💾")
	end := strings.Index(report, "⚡")
	if start < 0 || end < start {
		t.Fatalf("disk section not found in:\n%s", report)
	}
	lines := strings.Split(strings.TrimRight(report[start:end], "\n"), "\n")
	return lines[1:]
}

func TestRender_DiskTree(t *testing.T) {
	disk := func(mount string) metrics.DiskUsage {
		return metrics.DiskUsage{MountPoint: mount, TotalBytes: 1024, UsedBytes: 512, FreeBytes: 512, UsedPercent: 50}
	}

	tests := []struct {
		name  string
		disks []metrics.DiskUsage
		want  []string
	}{
		{
			name:  "No disks",
			disks: nil,
			want:  []string{},
		},
		{
			name:  "One disk",
			disks: []metrics.DiskUsage{disk("/")},
			want: []string{
				"└ <b>/</b>",
				"  ├ Total: 1.00 KB",
				"  ├ Used: 512.00 B (50.0%)",
				"  └ Free: 512.00 B",
			},
		},
		{
			name:  "Two disks",
			disks: []metrics.DiskUsage{disk("/"), disk("/data")},
			want: []string{
				"├ <b>/</b>",
				"│ ├ Total: 1.00 KB",
				"│ ├ Used: 512.00 B (50.0%)",
				"│ └ Free: 512.00 B",
				"",
				"└ <b>/data</b>",
				"  ├ Total: 1.00 KB",
				"  ├ Used: 512.00 B (50.0%)",
				"  └ Free: 512.00 B",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSnapshot()
			s.Disks = tt.disks

			got := diskSection(t, Render(s))
			if len(got) != len(tt.want) {
				t.Fatalf("disk section has %d lines, want %d:\n%s", len(got), len(tt.want), strings.Join(got, "\n"))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRender_ThreeDisksOnlyLastCloses(t *testing.T) {
	s := sampleSnapshot()
	s.Disks = []metrics.DiskUsage{{MountPoint: "/"}, {MountPoint: "/boot"}, {MountPoint: "/srv"}}

	var heads []string
	for _, line := range diskSection(t, Render(s)) {
		if strings.Contains(line, "<b>") {
			heads = append(heads, line)
		}
	}

	want := []string{"├ <b>/</b>", "├ <b>/boot</b>", "└ <b>/srv</b>"}
	if strings.Join(heads, "|") != strings.Join(want, "|") {
		t.Errorf("disk heads = %q, want %q", heads, want)
	}
}

func TestRender_EmptyProcessLists(t *testing.T) {
	s := sampleSnapshot()
	s.TopByCPU = nil
	s.TopByMemory = []metrics.ProcessStats{}

	got := Render(s)
	if !strings.Contains(got, "⚡ <b>Top processes (CPU):</b>\n\n🔥 <b>Top processes (Memory):</b>\n") {
		t.Errorf("empty process sections rendered unexpectedly:\n%s", got)
	}
	if !strings.HasSuffix(got, "🔥 <b>Top processes (Memory):</b>\n") {
		t.Errorf("report should end after the memory header:\n%s", got)
	}
}

func TestRender_OmitsEmptyComputerName(t *testing.T) {
	s := sampleSnapshot()
	s.ComputerName = ""

	if got := Render(s); strings.Contains(got, "Computer:") {
		t.Errorf("Render() contains a computer line for an empty name:\n%s", got)
	}
}

func TestRender_EscapesDynamicText(t *testing.T) {
	s := sampleSnapshot()
	s.TopByCPU[0].Name = "<script>&"
	s.Disks[0].MountPoint = "/mnt/<odd>"

	got := Render(s)
	if strings.Contains(got, "<script>") || strings.Contains(got, "<odd>") {
		t.Errorf("dynamic text not escaped:\n%s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;&amp;: 45.7%") {
		t.Errorf("escaped process name missing:\n%s", got)
	}
}

func TestRenderer_Russian(t *testing.T) {
	got := NewRenderer(LabelsFor("RU")).Render(sampleSnapshot())

	for _, want := range []string{
		"📊 <b>Отчет о состоянии системы</b>",
		"├ Ядер: 8",
		"├ Всего: 16.00 ГБ",
		"├ postgres: 1024 МБ (6.3%)",
		"  └ Свободно: 60.00 ГБ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Russian report missing %q:\n%s", want, got)
		}
	}
}

func TestLabelsFor(t *testing.T) {
	if LabelsFor("ru").Title != Russian.Title {
		t.Error("LabelsFor(ru) did not return Russian labels")
	}
	for _, lang := range []string{"", "en", "de"} {
		if LabelsFor(lang).Title != English.Title {
			t.Errorf("LabelsFor(%q) did not fall back to English", lang)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		value uint64
		want  string
	}{
		{0, "0.00 B"},
		{1, "1.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * gib / 2, "2.50 GB"},
		{1 << 40, "1.00 TB"},
		{1 << 50, "1.00 PB"},
		{1 << 60, "1024.00 PB"},
		{math.MaxUint64, "16384.00 PB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.value); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatVerbatim(t *testing.T) {
	tests := map[float64]string{
		25:      "25.0",
		40.5:    "40.5",
		33.3333: "33.3333",
		0:       "0.0",
		100:     "100.0",
	}
	for in, want := range tests {
		if got := formatVerbatim(in); got != want {
			t.Errorf("formatVerbatim(%v) = %q, want %q", in, got, want)
		}
	}
}
