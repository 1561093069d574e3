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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "github.com/phuonguno98/unoreport/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents application configuration.
// Keys match the config.json format of earlier releases, so JSON files load as is.
type Config struct {
	// Delivery
	TelegramToken string `yaml:"telegram_token"`
	ChatID        string `yaml:"chat_id"`
	APIURL        string `yaml:"api_url"` // Telegram Bot API base URL

	// Report
	ComputerName string `yaml:"computer_name"` // Shown in the report header (default: hostname)
	Language     string `yaml:"language"`      // Report labels: en, ru
	TopN         int    `yaml:"top_n"`         // Processes per top list

	// Schedule
	ScheduleTime string        `yaml:"schedule_time"` // Daily fire time, HH:MM
	Timezone     string        `yaml:"timezone"`      // Location for ScheduleTime and timestamps
	PollInterval time.Duration `yaml:"poll_interval"` // How often the daily loop checks the trigger

	// Collection
	MonitorAllDisks   bool          `yaml:"monitor_all_disks"` // false = root volume only
	IncludeMounts     []string      `yaml:"include_mounts"`    // Mount points to report (empty = all)
	ExcludeMounts     []string      `yaml:"exclude_mounts"`    // Mount points to skip
	CPUSampleInterval time.Duration `yaml:"cpu_sample_interval"`
	ExternalIPURL     string        `yaml:"external_ip_url"` // Empty disables the lookup
	ExternalIPTimeout time.Duration `yaml:"external_ip_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogFile  string `yaml:"log_file"`  // Empty = stdout

	// On-demand triggers
	StatusAddr      string        `yaml:"status_addr"`    // Status server listen address (empty = disabled)
	EnablePolling   bool          `yaml:"enable_polling"` // Answer /report, /status, /help in the chat
	TriggerInterval time.Duration `yaml:"trigger_interval"`
	TriggerBurst    int           `yaml:"trigger_burst"`
}

// Default configuration values.
const (
	DefaultConfigPath        = "config.yaml"
	DefaultAPIURL            = "https://api.telegram.org"
	DefaultLanguage          = "en"
	DefaultTopN              = 5
	DefaultScheduleTime      = "08:00"
	DefaultTimezone          = "Local"
	DefaultPollInterval      = 60 * time.Second
	DefaultCPUSampleInterval = 1 * time.Second
	DefaultExternalIPURL     = "https://api.ipify.org?format=text"
	DefaultExternalIPTimeout = 5 * time.Second
	DefaultLogLevel          = "info"
	DefaultTriggerInterval   = 30 * time.Second
	DefaultTriggerBurst      = 3

	// MaxPollInterval bounds how long an interrupt may wait for the daily loop.
	MaxPollInterval = 60 * time.Second
	// MaxExternalIPTimeout bounds the only network call made during collection.
	MaxExternalIPTimeout = 5 * time.Second

	placeholderToken  = "YOUR_BOT_TOKEN_HERE"
	placeholderChatID = "YOUR_CHAT_ID_HERE"

	// EnvTelegramToken overrides telegram_token so the secret can stay out of the file.
	EnvTelegramToken = "UNOREPORT_TELEGRAM_TOKEN"
	// EnvChatID overrides chat_id.
	EnvChatID = "UNOREPORT_CHAT_ID"
)

// Default returns a configuration with every optional field set to its default.
func Default() *Config {
	return &Config{
		APIURL:            DefaultAPIURL,
		Language:          DefaultLanguage,
		TopN:              DefaultTopN,
		ScheduleTime:      DefaultScheduleTime,
		Timezone:          DefaultTimezone,
		PollInterval:      DefaultPollInterval,
		MonitorAllDisks:   true,
		CPUSampleInterval: DefaultCPUSampleInterval,
		ExternalIPURL:     DefaultExternalIPURL,
		ExternalIPTimeout: DefaultExternalIPTimeout,
		LogLevel:          DefaultLogLevel,
		TriggerInterval:   DefaultTriggerInterval,
		TriggerBurst:      DefaultTriggerBurst,
	}
}

// Load reads the configuration file at path on top of the defaults.
// The result is not validated; call Validate once flag overrides are applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfiguration,
			"failed to read config file", err, map[string]any{"path": path})
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfiguration,
			"failed to parse config file", err, map[string]any{"path": path})
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv(EnvChatID); v != "" {
		c.ChatID = v
	}
}

// applyDefaults fills values that an explicit empty entry in the file cleared.
func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.ScheduleTime == "" {
		c.ScheduleTime = DefaultScheduleTime
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ComputerName == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.ComputerName = hostname
		}
	}
}

// parseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ParseCommaSeparated is the exported version of parseCommaSeparated.
func ParseCommaSeparated(s string) []string {
	return parseCommaSeparated(s)
}

// Validate checks the whole configuration, delivery credentials included.
// Every failure is a CONFIGURATION error.
func (c *Config) Validate() error {
	if err := c.validateCredentials(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfiguration, "invalid configuration", err)
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except delivery credentials.
// It is enough for commands that never talk to Telegram.
func (c *Config) ValidateSettings() error {
	if err := c.validateSettings(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfiguration, "invalid configuration", err)
	}
	return nil
}

func (c *Config) validateCredentials() error {
	if c.TelegramToken == "" || c.TelegramToken == placeholderToken {
		return errors.New("telegram_token is required")
	}
	if c.ChatID == "" || c.ChatID == placeholderChatID {
		return errors.New("chat_id is required")
	}
	return nil
}

func (c *Config) validateSettings() error {
	if _, _, err := ParseClock(c.ScheduleTime); err != nil {
		return fmt.Errorf("invalid schedule_time: %w", err)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %s (%w)", c.Timezone, err)
		}
	}

	if c.PollInterval < 1*time.Second {
		return errors.New("poll_interval must be at least 1 second")
	}
	if c.PollInterval > MaxPollInterval {
		return fmt.Errorf("poll_interval must not exceed %v", MaxPollInterval)
	}

	if c.TopN < 1 {
		return errors.New("top_n must be at least 1")
	}

	if c.CPUSampleInterval < 100*time.Millisecond || c.CPUSampleInterval > 10*time.Second {
		return errors.New("cpu_sample_interval must be between 100ms and 10s")
	}

	if c.ExternalIPTimeout <= 0 || c.ExternalIPTimeout > MaxExternalIPTimeout {
		return fmt.Errorf("external_ip_timeout must be in (0, %v]", MaxExternalIPTimeout)
	}

	if c.Language != "en" && c.Language != "ru" {
		return fmt.Errorf("invalid language: %s (must be en or ru)", c.Language)
	}

	if c.TriggerInterval <= 0 {
		return errors.New("trigger_interval must be positive")
	}
	if c.TriggerBurst < 1 {
		return errors.New("trigger_burst must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// String returns a human-readable representation of the configuration.
// Credentials are redacted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Computer=%s, Schedule=%s %s, Poll=%v, TopN=%d, AllDisks=%t, Token=%s, ChatID=%s}",
		c.ComputerName, c.ScheduleTime, c.Timezone, c.PollInterval, c.TopN, c.MonitorAllDisks,
		redact(c.TelegramToken), redact(c.ChatID))
}

func redact(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "<redacted>"
}
