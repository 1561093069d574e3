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
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/phuonguno98/unoreport/internal/config"
	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of the command tree to its default so
// tests do not see each other's overrides.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := InitLogger(tt.level, "")
			ctx := context.Background()
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestInitLogger_FileIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unoreport.log")

	logger := InitLogger("info", path)
	logger.Info("Cycle finished", "cycle_id", "abc")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "Cycle finished" || entry["cycle_id"] != "abc" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })

	path := writeConfig(t, "telegram_token: \"123:abc\"\nchat_id: \"42\"\nlog_level: warn\ntimezone: UTC\n")

	if err := rootCmd.ParseFlags([]string{"--config", path, "--log-level", "debug"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want flag value debug", cfg.LogLevel)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want file value UTC", cfg.Timezone)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_MountFlags(t *testing.T) {
	path := writeConfig(t, "include_mounts: [\"/srv\"]\nexclude_mounts: [\"/tmp\"]\n")

	tests := []struct {
		name        string
		args        []string
		wantInclude []string
		wantExclude []string
	}{
		{
			name:        "file values without flags",
			args:        []string{"--config", path},
			wantInclude: []string{"/srv"},
			wantExclude: []string{"/tmp"},
		},
		{
			name:        "flags replace file values",
			args:        []string{"--config", path, "--include-mounts", " /, /data ,", "--exclude-mounts", "/boot"},
			wantInclude: []string{"/", "/data"},
			wantExclude: []string{"/boot"},
		},
		{
			name:        "empty flag clears the include list",
			args:        []string{"--config", path, "--include-mounts", ""},
			wantInclude: []string{},
			wantExclude: []string{"/tmp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { resetFlags(t) })

			if err := rootCmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}
			cfg, err := loadConfig(rootCmd)
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if len(cfg.IncludeMounts) != len(tt.wantInclude) ||
				(len(tt.wantInclude) > 0 && !reflect.DeepEqual(cfg.IncludeMounts, tt.wantInclude)) {
				t.Errorf("IncludeMounts = %q, want %q", cfg.IncludeMounts, tt.wantInclude)
			}
			if !reflect.DeepEqual(cfg.ExcludeMounts, tt.wantExclude) {
				t.Errorf("ExcludeMounts = %q, want %q", cfg.ExcludeMounts, tt.wantExclude)
			}
		})
	}
}

func TestListDevices_MountFlagsWithoutConfig(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := listDevicesCmd.ParseFlags([]string{"--config", missing, "--exclude-mounts", "/boot,/snap"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg := config.Default()
	applyMountFlags(listDevicesCmd, cfg)
	if want := []string{"/boot", "/snap"}; !reflect.DeepEqual(cfg.ExcludeMounts, want) {
		t.Errorf("ExcludeMounts = %q, want %q", cfg.ExcludeMounts, want)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	configPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := loadConfig(rootCmd)
	if !apperrors.IsCode(err, apperrors.ErrCodeConfiguration) {
		t.Errorf("loadConfig() error = %v, want CONFIGURATION", err)
	}
}

func TestExecute_TestModeDeliveryFailureExitsCleanly(t *testing.T) {
	t.Cleanup(func() {
		resetFlags(t)
		rootCmd.SetArgs(nil)
	})
	t.Setenv(config.EnvTelegramToken, "")
	t.Setenv(config.EnvChatID, "")

	var sends atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			sends.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer api.Close()

	path := writeConfig(t, "telegram_token: \"123:abc\"\n"+
		"chat_id: \"42\"\n"+
		"api_url: \""+api.URL+"\"\n"+
		"external_ip_url: \"\"\n"+
		"cpu_sample_interval: 100ms\n"+
		"log_level: error\n")

	rootCmd.SetArgs([]string{"--config", path, "--test"})
	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v, want nil when delivery fails", err)
	}
	if got := sends.Load(); got != 1 {
		t.Errorf("sendMessage attempts = %d, want exactly 1", got)
	}
}

func TestExecute_PlaceholderTokenIsConfigurationError(t *testing.T) {
	t.Cleanup(func() {
		resetFlags(t)
		rootCmd.SetArgs(nil)
	})
	t.Setenv(config.EnvTelegramToken, "")
	t.Setenv(config.EnvChatID, "")

	var hits atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer api.Close()

	path := writeConfig(t, "telegram_token: YOUR_BOT_TOKEN_HERE\n"+
		"chat_id: \"42\"\n"+
		"api_url: \""+api.URL+"\"\n")

	rootCmd.SetArgs([]string{"--config", path, "--test"})
	err := Execute()
	if !apperrors.IsCode(err, apperrors.ErrCodeConfiguration) {
		t.Errorf("Execute() error = %v, want CONFIGURATION", err)
	}
	if hits.Load() != 0 {
		t.Errorf("Bot API was called %d times before validation failed", hits.Load())
	}
}
