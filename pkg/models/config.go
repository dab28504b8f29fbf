package models

import "time"

// Config holds the settings read from .taskcard.yaml and TASKCARD_*
// environment variables via Viper.
type Config struct {
	API           APIConfig          `yaml:"api" mapstructure:"api"`
	Storage       StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Log           LogConfig          `yaml:"log" mapstructure:"log"`
	Events        EventsConfig       `yaml:"events" mapstructure:"events"`
	Alerts        AlertsConfig       `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}

// APIConfig describes the remote task resource.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	StartID int           `yaml:"start_id" mapstructure:"start_id" validate:"gte=0"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Token   string        `yaml:"token,omitempty" mapstructure:"token"`
}

// StorageConfig selects the slot backend and the slot key.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"required,oneof=memory file sqlite"`
	Key     string `yaml:"key" mapstructure:"key" validate:"required"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// EventsConfig toggles the JSONL event log.
type EventsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// AlertsConfig holds alert thresholds.
type AlertsConfig struct {
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" mapstructure:"max_consecutive_failures" validate:"gte=0"`
	MaxFallbackReads       int `yaml:"max_fallback_reads" mapstructure:"max_fallback_reads" validate:"gte=0"`
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	Slack SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// SlackConfig holds the Slack webhook used for alert notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty" mapstructure:"webhook_url" validate:"omitempty,url"`
}
