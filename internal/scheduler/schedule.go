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

package scheduler

import (
	"fmt"
	"time"

	"github.com/phuonguno98/unoreport/internal/config"
)

// TimeOfDay is a wall-clock trigger that fires once per day.
type TimeOfDay struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseTimeOfDay parses "HH:MM" in loc (nil = Local).
func ParseTimeOfDay(s string, loc *time.Location) (TimeOfDay, error) {
	hour, minute, err := config.ParseClock(s)
	if err != nil {
		return TimeOfDay{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return TimeOfDay{Hour: hour, Minute: minute, Location: loc}, nil
}

// Next returns the first occurrence strictly after the given instant.
// Times skipped by a DST jump are normalized forward by time.Date.
func (t TimeOfDay) Next(after time.Time) time.Time {
	loc := t.Location
	if loc == nil {
		loc = time.Local
	}

	a := after.In(loc)
	next := time.Date(a.Year(), a.Month(), a.Day(), t.Hour, t.Minute, 0, 0, loc)
	if !next.After(a) {
		next = time.Date(a.Year(), a.Month(), a.Day()+1, t.Hour, t.Minute, 0, 0, loc)
	}
	return next
}

// latestDue returns the last occurrence at or before now, starting from a
// due occurrence. Occurrences missed in between collapse into one.
func (t TimeOfDay) latestDue(due, now time.Time) time.Time {
	for n := t.Next(due); !n.After(now); n = t.Next(n) {
		due = n
	}
	return due
}

// String returns the "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
