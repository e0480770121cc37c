// Package config is procwatch's typed configuration surface: a single
// JSON-encoded struct with documented defaults for every tunable, loaded
// from XDG_CONFIG_HOME or ~/.config/procwatch/config.json. The core
// itself recognizes no environment variables directly; collaborators
// configure it entirely through this struct.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config is procwatch's complete set of recognized options.
type Config struct {
	// RefreshIntervalSeconds is the sampler's tick period.
	RefreshIntervalSeconds int `json:"refresh_interval_seconds"`

	History  HistoryConfig  `json:"history"`
	Alerts   AlertsConfig   `json:"alerts"`
	Features FeaturesConfig `json:"features"`

	// Notify holds the alert notifier's destination channels.
	Notify NotifyConfig `json:"notify"`
}

// HistoryConfig tunes the durable time-series subsystem.
type HistoryConfig struct {
	Enabled                  bool   `json:"enabled"`
	DatabasePath             string `json:"database_path"`
	RetentionDays            int    `json:"retention_days"`
	RecordingIntervalSeconds int    `json:"recording_interval_seconds"`
}

// AlertsConfig holds the alert subsystem's switch and default CPU/memory
// thresholds. No code in this module builds alertengine rules from it.
type AlertsConfig struct {
	Enabled         bool    `json:"enabled"`
	CPUThreshold    float64 `json:"cpu_threshold"`
	MemoryThreshold float64 `json:"memory_threshold"`
}

// FeaturesConfig toggles optional subsystems.
type FeaturesConfig struct {
	GPUMonitoring      bool `json:"gpu_monitoring"`
	NetworkMonitoring  bool `json:"network_monitoring"`
	ContainerDetection bool `json:"container_detection"`
	AnomalyDetection   bool `json:"anomaly_detection"`
}

// NotifyConfig names the alertengine.Notifier's destination channels.
type NotifyConfig struct {
	Webhook          string `json:"webhook"`
	Command          string `json:"command"`
	Email            string `json:"email"`
	SlackWebhook     string `json:"slack_webhook"`
	TelegramBotToken string `json:"telegram_bot_token"`
	TelegramChatID   string `json:"telegram_chat_id"`
}

// Default returns a Config with every option set to its documented
// default.
func Default() Config {
	return Config{
		RefreshIntervalSeconds: 2,
		History: HistoryConfig{
			Enabled:                  true,
			DatabasePath:             "procwatch_history.db",
			RetentionDays:            7,
			RecordingIntervalSeconds: 2,
		},
		Alerts: AlertsConfig{
			Enabled:         true,
			CPUThreshold:    80,
			MemoryThreshold: 80,
		},
		Features: FeaturesConfig{
			GPUMonitoring:      false,
			NetworkMonitoring:  true,
			ContainerDetection: true,
			AnomalyDetection:   true,
		},
	}
}

// Path returns ~/.config/procwatch/config.json, honoring XDG_CONFIG_HOME.
// Returns an empty string if the home directory cannot be determined —
// callers refuse to fall back to a shared/world-writable directory.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "procwatch", "config.json")
}

// Load reads the config file, falling back to Default() if it does not
// exist or cannot be determined. A parse error is logged and the
// defaults are returned rather than failing the caller's startup.
func Load() Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("procwatch: warning: config parse error: %v", err)
		return Default()
	}
	return cfg
}

// Save writes cfg to Path(), creating the parent directory if needed.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("config: cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}
