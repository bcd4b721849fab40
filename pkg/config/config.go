// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults used when the corresponding environment variable is absent.
const (
	DefaultZone      = "serp_api1"
	DefaultModel     = "gemini-3-flash-preview"
	DefaultPostCount = 3

	DefaultThreadsPath  = "app/data/threads.json"
	DefaultSettingsPath = "data/admin-settings.json"
	DefaultRunLogPath   = "data/runlog.jsonl"
)

// Config carries every external knob the pipeline needs. It is built once in
// main and passed explicitly into component constructors; no component reads
// the environment on its own.
type Config struct {
	BrightDataKey  string
	BrightDataZone string

	GoogleAPIKey string
	Model        string

	// WeeklyPostCount is the environment-level run size. The admin settings
	// store may override it at run time.
	WeeklyPostCount int

	// Slack summary notification, optional. Both must be set to enable it.
	SlackToken   string
	SlackChannel string

	ThreadsPath  string
	SettingsPath string
	RunLogPath   string
}

// Load reads configuration from environment variables. Callers are expected
// to have loaded .env (godotenv) beforehand.
func Load() *Config {
	return &Config{
		BrightDataKey:   os.Getenv("BRIGHTDATA_API_KEY"),
		BrightDataZone:  envOr("BRIGHTDATA_ZONE", DefaultZone),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		Model:           envOr("GOOGLE_MODEL", DefaultModel),
		WeeklyPostCount: envInt("WEEKLY_POST_COUNT", DefaultPostCount),
		SlackToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:    os.Getenv("SLACK_SUMMARY_CHANNEL"),
		ThreadsPath:     envOr("THREADS_PATH", DefaultThreadsPath),
		SettingsPath:    envOr("ADMIN_SETTINGS_PATH", DefaultSettingsPath),
		RunLogPath:      envOr("RUN_LOG_PATH", DefaultRunLogPath),
	}
}

// Validate checks the credentials the pipeline cannot run without. It is
// called before any file or network access so a misconfigured deployment
// fails immediately.
func (c *Config) Validate() error {
	if c.BrightDataKey == "" {
		return fmt.Errorf("BRIGHTDATA_API_KEY is required")
	}
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}
	return nil
}

// NotifyEnabled reports whether the Slack summary should be sent.
func (c *Config) NotifyEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt parses a positive integer from the environment, falling back when
// the variable is absent, malformed, or non-positive.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
