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

// Package delivery sends rendered reports to the operator.
package delivery

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
)

// Markup names the dialect a report is written in.
type Markup string

const (
	// MarkupHTML is the Telegram HTML subset (<b>, line breaks).
	MarkupHTML Markup = "HTML"
	// MarkupNone sends the text as-is.
	MarkupNone Markup = ""
)

// Channel accepts one report per call. A returned error is a DELIVERY
// error; size and rate limits of the remote end are not inspected.
type Channel interface {
	Deliver(ctx context.Context, text string, markup Markup) error
}

// Writer delivers reports to an io.Writer, one report per call.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a channel writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Deliver writes text followed by a newline when it lacks one.
func (c *Writer) Deliver(_ context.Context, text string, _ Markup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(c.w, text); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDelivery, "failed to write report", err)
	}
	return nil
}

// String identifies the channel in logs.
func (c *Writer) String() string {
	return fmt.Sprintf("writer(%T)", c.w)
}
