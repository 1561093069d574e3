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
	"fmt"
	"log/slog"
	"os"

	"github.com/phuonguno98/unoreport/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global persistent flags (shared by subcommands)
	configPath string
	logLevel   string
	logFile    string
	timezone   string

	// Mount filter flags
	includeMounts string
	excludeMounts string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "unoreport",
	Short: "UnoReport - Daily host health reports delivered to Telegram",
	Long: `UnoReport samples CPU, memory, disks, network identity and the busiest
processes of this machine, renders them into a compact report and sends it
to a Telegram chat once a day or on demand.

Without flags it runs until interrupted and reports at schedule_time.
Use --test to send a single report immediately and exit.`,
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath,
		"Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error) (default from config, then info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (default from config, then stdout)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "",
		"Timezone for the schedule and timestamps (e.g., 'Asia/Ho_Chi_Minh', 'Local')")

	// Filter flags
	rootCmd.PersistentFlags().StringVar(&includeMounts, "include-mounts", "",
		"Comma-separated list of mount points to report (overrides include_mounts)")
	rootCmd.PersistentFlags().StringVar(&excludeMounts, "exclude-mounts", "",
		"Comma-separated list of mount points to skip (overrides exclude_mounts)")
}

// InitLogger initializes and returns a slog.Logger based on the provided settings.
// It is shared by all commands to ensure consistent logging format.
func InitLogger(levelStr, fileStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// loadConfig reads the config file and applies persistent flag overrides.
// The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("timezone") {
		cfg.Timezone = timezone
	}
	applyMountFlags(cmd, cfg)

	return cfg, nil
}

// applyMountFlags replaces the configured mount filters with the ones given
// on the command line.
func applyMountFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("include-mounts") {
		cfg.IncludeMounts = config.ParseCommaSeparated(includeMounts)
	}
	if flags.Changed("exclude-mounts") {
		cfg.ExcludeMounts = config.ParseCommaSeparated(excludeMounts)
	}
}
