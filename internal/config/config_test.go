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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "unoreport_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(tempDir); err != nil {
			t.Logf("Failed to remove temp dir: %v", err)
		}
	})

	path := filepath.Join(tempDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "Single value",
			input:    "/",
			expected: []string{"/"},
		},
		{
			name:     "Multiple values",
			input:    "/,/data",
			expected: []string{"/", "/data"},
		},
		{
			name:     "Whitespace handling",
			input:    " / , /data ",
			expected: []string{"/", "/data"},
		},
		{
			name:     "Empty parts",
			input:    "/,,/data",
			expected: []string{"/", "/data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommaSeparated(tt.input)
			if len(got) != len(tt.expected) {
				t.Errorf("ParseCommaSeparated() length = %v, want %v", len(got), len(tt.expected))
				return
			}
			for i, v := range got {
				if v != tt.expected[i] {
					t.Errorf("ParseCommaSeparated()[%d] = %v, want %v", i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestLoad_LegacyJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "computer_id": "srv-01",
  "computer_name": "Build server",
  "telegram_token": "123:abc",
  "chat_id": "-100200300",
  "schedule_time": "07:30",
  "monitor_all_disks": false,
  "language": "ru",
  "log_file": "monitor.log",
  "enable_polling": true
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramToken != "123:abc" || cfg.ChatID != "-100200300" {
		t.Errorf("credentials = %q/%q", cfg.TelegramToken, cfg.ChatID)
	}
	if cfg.ScheduleTime != "07:30" {
		t.Errorf("ScheduleTime = %q, want 07:30", cfg.ScheduleTime)
	}
	if cfg.MonitorAllDisks {
		t.Error("MonitorAllDisks = true, want false")
	}
	if cfg.Language != "ru" || cfg.ComputerName != "Build server" || !cfg.EnablePolling {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Defaults survive for keys the file omits
	if cfg.TopN != DefaultTopN || cfg.PollInterval != DefaultPollInterval {
		t.Errorf("defaults lost: TopN=%d Poll=%v", cfg.TopN, cfg.PollInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram_token: "123:abc"
chat_id: 987654
api_url: https://telegram.example.com/
top_n: 3
poll_interval: 15s
external_ip_timeout: 2s
exclude_mounts:
  - /boot/efi
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatID != "987654" {
		t.Errorf("ChatID = %q, want 987654", cfg.ChatID)
	}
	if cfg.APIURL != "https://telegram.example.com" {
		t.Errorf("APIURL = %q, trailing slash should be trimmed", cfg.APIURL)
	}
	if cfg.TopN != 3 || cfg.PollInterval != 15*time.Second || cfg.ExternalIPTimeout != 2*time.Second {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if len(cfg.ExcludeMounts) != 1 || cfg.ExcludeMounts[0] != "/boot/efi" {
		t.Errorf("ExcludeMounts = %v", cfg.ExcludeMounts)
	}
	if !cfg.MonitorAllDisks {
		t.Error("MonitorAllDisks default should be true")
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(os.TempDir(), "does-not-exist-unoreport.yaml"))
		if !apperrors.IsCode(err, apperrors.ErrCodeConfiguration) {
			t.Errorf("Load() error = %v, want CONFIGURATION", err)
		}
	})

	t.Run("Malformed file", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "telegram_token: [unterminated")
		_, err := Load(path)
		if !apperrors.IsCode(err, apperrors.ErrCodeConfiguration) {
			t.Errorf("Load() error = %v, want CONFIGURATION", err)
		}
	})
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvTelegramToken, "env-token")
	path := writeConfig(t, "config.yaml", "telegram_token: YOUR_BOT_TOKEN_HERE\nchat_id: \"42\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "env-token" {
		t.Errorf("TelegramToken = %q, want env-token", cfg.TelegramToken)
	}
}

func validConfig() Config {
	cfg := Default()
	cfg.TelegramToken = "123:abc"
	cfg.ChatID = "42"
	return *cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "Valid Config",
			mutate: func(*Config) {},
		},
		{
			name:    "Placeholder token",
			mutate:  func(c *Config) { c.TelegramToken = "YOUR_BOT_TOKEN_HERE" },
			wantErr: "telegram_token",
		},
		{
			name:    "Missing chat id",
			mutate:  func(c *Config) { c.ChatID = "" },
			wantErr: "chat_id",
		},
		{
			name:    "Placeholder chat id",
			mutate:  func(c *Config) { c.ChatID = "YOUR_CHAT_ID_HERE" },
			wantErr: "chat_id",
		},
		{
			name:    "Bad schedule time",
			mutate:  func(c *Config) { c.ScheduleTime = "25:00" },
			wantErr: "schedule_time",
		},
		{
			name:    "Poll interval too long",
			mutate:  func(c *Config) { c.PollInterval = 2 * time.Minute },
			wantErr: "poll_interval",
		},
		{
			name:    "Poll interval too short",
			mutate:  func(c *Config) { c.PollInterval = 100 * time.Millisecond },
			wantErr: "poll_interval",
		},
		{
			name:    "Zero top N",
			mutate:  func(c *Config) { c.TopN = 0 },
			wantErr: "top_n",
		},
		{
			name:    "External IP timeout above bound",
			mutate:  func(c *Config) { c.ExternalIPTimeout = 10 * time.Second },
			wantErr: "external_ip_timeout",
		},
		{
			name:    "Unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: "timezone",
		},
		{
			name:    "Unknown language",
			mutate:  func(c *Config) { c.Language = "de" },
			wantErr: "language",
		},
		{
			name:    "Invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want to contain %q", err, tt.wantErr)
			}
			if !apperrors.IsCode(err, apperrors.ErrCodeConfiguration) {
				t.Errorf("Validate() error code = %s, want CONFIGURATION", apperrors.CodeOf(err))
			}
		})
	}
}

func TestConfig_ValidateSettingsIgnoresCredentials(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateSettings(); err != nil {
		t.Errorf("ValidateSettings() error = %v, want nil", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want missing credentials")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"08:00", 8, 0, false},
		{"8:05", 8, 5, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (h != tt.hour || m != tt.minute) {
				t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
			}
		})
	}
}

func TestConfig_StringRedactsCredentials(t *testing.T) {
	cfg := validConfig()
	s := cfg.String()
	if strings.Contains(s, "123:abc") {
		t.Errorf("String() leaks token: %s", s)
	}
}
