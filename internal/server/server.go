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

// Package server exposes health, status and on-demand reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/phuonguno98/unoreport/internal/scheduler"
	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"github.com/phuonguno98/unoreport/pkg/metrics"
	"github.com/phuonguno98/unoreport/pkg/version"
	"github.com/phuonguno98/unoreport/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Dispatcher is the part of the scheduler the server drives.
type Dispatcher interface {
	TryRunCycle(ctx context.Context, trigger string) (metrics.DeliveryOutcome, error)
	Status() scheduler.Status
}

// Config holds server settings.
type Config struct {
	Addr            string
	TopN            int
	TriggerInterval time.Duration // Minimum spacing of on-demand reports
	TriggerBurst    int
}

// Server represents the status server.
type Server struct {
	config     Config
	dispatcher Dispatcher
	collector  scheduler.Collector
	renderer   scheduler.Renderer
	limiter    *rate.Limiter
	logger     *slog.Logger
	router     *mux.Router
}

// NewServer creates a new status server.
func NewServer(cfg Config, dispatcher Dispatcher, collector scheduler.Collector, renderer scheduler.Renderer, logger *slog.Logger) *Server {
	if cfg.TriggerBurst < 1 {
		cfg.TriggerBurst = 1
	}

	s := &Server{
		config:     cfg,
		dispatcher: dispatcher,
		collector:  collector,
		renderer:   renderer,
		limiter:    rate.NewLimiter(rate.Every(cfg.TriggerInterval), cfg.TriggerBurst),
		logger:     logger,
		router:     mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleGetStatus).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Both collect a fresh snapshot, so they share the trigger budget
	reports := s.router.PathPrefix("/api/report").Subrouter()
	reports.Use(s.rateLimitMiddleware)
	reports.HandleFunc("/preview", s.handlePreview).Methods(http.MethodGet)
	reports.HandleFunc("", s.handleTriggerReport).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A triggered cycle samples, looks up the external address and sends
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Status server listening", "addr", s.config.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("status server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.logger.Info("Status server stopped")
	return nil
}

// handleIndex serves the embedded status page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	indexFile, err := web.Assets.Open("index.html")
	if err != nil {
		s.logger.Error("Failed to open index.html", "error", err)
		http.Error(w, "Internal Server Error: index.html not found", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := indexFile.Close(); err != nil {
			s.logger.Warn("Failed to close index.html", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.Copy(w, indexFile); err != nil {
		s.logger.Error("Failed to serve index.html", "error", err)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	versionInfo := map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	}
	s.writeJSON(w, http.StatusOK, versionInfo)
}

// handleGetStatus returns the dispatcher state.
func (s *Server) handleGetStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.Status())
}

// handlePreview renders a fresh snapshot without delivering it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.collector.Collect(r.Context(), s.config.TopN)
	if err != nil {
		s.logger.Warn("Preview collection failed", "error", err)
		s.writeError(w, apperrors.CodeOf(err), err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if _, err := w.Write([]byte(s.renderer.Render(snapshot))); err != nil {
		s.logger.Warn("Failed to write preview", "error", err)
	}
}

// handleTriggerReport runs one cycle now. The cycle keeps running if the
// client goes away.
func (s *Server) handleTriggerReport(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.dispatcher.TryRunCycle(context.WithoutCancel(r.Context()), "http")
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsCode(err, apperrors.ErrCodeCycleInProgress) {
			status = http.StatusConflict
		}
		s.writeError(w, apperrors.CodeOf(err), err.Error(), status)
		return
	}

	s.writeJSON(w, outcomeStatus(outcome), outcome)
}

// outcomeStatus maps a cycle outcome to an HTTP status.
func outcomeStatus(o metrics.DeliveryOutcome) int {
	switch {
	case o.Success:
		return http.StatusOK
	case o.ErrorCode == string(apperrors.ErrCodeDelivery):
		return http.StatusBadGateway
	case o.ErrorCode == string(apperrors.ErrCodeObservation):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code apperrors.ErrorCode, message string, status int) {
	s.writeJSON(w, status, map[string]string{
		"code":  string(code),
		"error": message,
	})
}

// retryAfter returns the whole seconds until the limiter has a token again.
func (s *Server) retryAfter() string {
	r := s.limiter.Reserve()
	delay := r.Delay()
	r.Cancel()

	secs := int(delay.Seconds())
	if time.Duration(secs)*time.Second < delay {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
