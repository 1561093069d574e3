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

	"github.com/phuonguno98/unoreport/internal/collector"
	"github.com/phuonguno98/unoreport/internal/report"
	"github.com/spf13/cobra"
)

var previewTop int

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print a report for this machine without sending it",
	Long: `Collect a fresh snapshot and print the rendered report to stdout.
Nothing is delivered and no Telegram credentials are needed.

Examples:
  # Preview with settings from config.yaml
  unoreport preview

  # Preview the ten busiest processes
  unoreport preview --top 10`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVar(&previewTop, "top", 0, "Processes per top list (default from config)")
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("top") {
		cfg.TopN = previewTop
	}
	if err := cfg.ValidateSettings(); err != nil {
		return err
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	manager := collector.NewManager(collector.NewGopsutilProvider(), collector.OptionsFromConfig(cfg), logger)
	snapshot, err := manager.Collect(cmd.Context(), cfg.TopN)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.NewRenderer(report.LabelsFor(cfg.Language)).Render(snapshot))
	return nil
}
