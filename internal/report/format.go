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
	"fmt"
	"strconv"
	"strings"
)

// FormatBytes renders a byte count with two decimals and the largest unit
// in [B, KB, MB, GB, TB, PB] that keeps the value below 1024.
// Values past 1024 PB stay in PB.
func FormatBytes(value uint64) string {
	return formatBytes(value, English.Units)
}

func formatBytes(value uint64, units [6]string) string {
	scaled := float64(value)
	i := 0
	for scaled >= 1024 && i < len(units)-1 {
		scaled /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", scaled, units[i])
}

// formatVerbatim prints a percentage exactly as the provider reported it,
// keeping at least one decimal so 25 renders as "25.0".
func formatVerbatim(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape protects dynamic text inside the HTML subset Telegram accepts.
func escape(s string) string {
	return htmlEscaper.Replace(s)
}
