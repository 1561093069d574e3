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

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phuonguno98/unoreport/internal/bot"
	"github.com/phuonguno98/unoreport/internal/collector"
	"github.com/phuonguno98/unoreport/internal/config"
	"github.com/phuonguno98/unoreport/internal/delivery"
	"github.com/phuonguno98/unoreport/internal/report"
	"github.com/phuonguno98/unoreport/internal/scheduler"
	"github.com/phuonguno98/unoreport/internal/server"
	"github.com/phuonguno98/unoreport/pkg/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	osWindows = "windows"
	osLinux   = "linux"
	osDarwin  = "darwin"
)

var (
	// Run mode flags
	testMode     bool
	dryRun       bool
	scheduleTime string
	topN         int
)

func init() {
	rootCmd.Flags().BoolVarP(&testMode, "test", "t", false,
		"Send one report immediately and exit")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print reports to stdout instead of sending them (no credentials needed)")
	rootCmd.Flags().StringVar(&scheduleTime, "schedule-time", "",
		"Daily report time, HH:MM (overrides schedule_time)")
	rootCmd.Flags().IntVar(&topN, "top", config.DefaultTopN,
		"Processes per top list (overrides top_n)")
}

// runReport is the main entry point: one immediate report with --test,
// otherwise the daily loop until SIGINT or SIGTERM.
func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("schedule-time") {
		cfg.ScheduleTime = scheduleTime
	}
	if flags.Changed("top") {
		cfg.TopN = topN
	}

	if dryRun {
		err = cfg.ValidateSettings()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("Starting UnoReport",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String())

	checkPlatformCapabilities(logger)

	manager := collector.NewManager(collector.NewGopsutilProvider(), collector.OptionsFromConfig(cfg), logger)
	renderer := report.NewRenderer(report.LabelsFor(cfg.Language))

	opts, err := scheduler.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	var (
		channel  delivery.Channel
		telegram *delivery.Telegram
	)
	if dryRun {
		channel = delivery.NewWriter(os.Stdout)
		opts.Markup = delivery.MarkupNone
	} else {
		telegram = delivery.NewTelegram(cfg.TelegramToken, cfg.ChatID, delivery.WithAPIURL(cfg.APIURL))
		channel = telegram
	}
	logger.Info("Delivery channel ready", "channel", fmt.Sprint(channel))

	dispatcher := scheduler.NewDispatcher(manager, renderer, channel, opts, logger)

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if testMode {
		outcome := dispatcher.RunOnce(ctx)
		if !outcome.Success {
			logger.Warn("Test report was not delivered",
				"cycle_id", outcome.CycleID,
				"error_code", outcome.ErrorCode,
			)
		}
		return nil
	}

	return serve(ctx, cfg, dispatcher, manager, renderer, telegram, logger)
}

// serve runs the daily loop and the optional status server and command
// poller until ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, dispatcher *scheduler.Dispatcher,
	manager *collector.Manager, renderer *report.Renderer, telegram *delivery.Telegram, logger *slog.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.RunDaily(gctx)
	})

	if cfg.StatusAddr != "" {
		srv := server.NewServer(server.Config{
			Addr:            cfg.StatusAddr,
			TopN:            cfg.TopN,
			TriggerInterval: cfg.TriggerInterval,
			TriggerBurst:    cfg.TriggerBurst,
		}, dispatcher, manager, renderer, logger)

		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if cfg.EnablePolling {
		if telegram == nil {
			logger.Warn("Command polling needs Telegram delivery, disabled in dry-run mode")
		} else {
			poller := bot.NewPoller(bot.Config{
				ChatID:          cfg.ChatID,
				ComputerName:    cfg.ComputerName,
				TriggerInterval: cfg.TriggerInterval,
				TriggerBurst:    cfg.TriggerBurst,
			}, telegram, dispatcher, logger)

			g.Go(func() error {
				return poller.Run(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("Stopped with error", "error", err)
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

// checkPlatformCapabilities logs platform-specific collection caveats.
func checkPlatformCapabilities(logger *slog.Logger) {
	switch runtime.GOOS {
	case osWindows:
		logger.Info("Running on Windows: only the system drive is reported when monitor_all_disks is false")
	case osDarwin:
		logger.Info("Running on macOS: processes of other users may be skipped without sudo")
	case osLinux:
		logger.Info("Running on Linux: all metrics available")
	default:
		logger.Warn("Running on unsupported platform, some metrics may not work", "os", runtime.GOOS)
	}
}
