// Package core contains the business logic for taskcard, including the state
// transition constructors, the fetch workflow, the view binding, the task id
// counter, diagnostics, and configuration.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/taskcard/pkg/models"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the configuration file looked up in the base
// path.
const ConfigFileName = ".taskcard.yaml"

// EnvPrefix prefixes every environment override (TASKCARD_API_BASE_URL, ...).
const EnvPrefix = "TASKCARD"

// ConfigurationManager defines the interface for loading and validating the
// taskcard configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
	WriteStarterConfig() (string, error)
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML configuration file and environment overrides.
type viperConfigManager struct {
	// basePath is the directory where .taskcard.yaml resides.
	basePath string
	validate *validator.Validate
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &viperConfigManager{basePath: basePath, validate: v}
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		API: models.APIConfig{
			BaseURL: "https://taskmanager01-api.herokuapp.com/tasks",
			StartID: 196,
			Timeout: 10 * time.Second,
		},
		Storage: models.StorageConfig{
			Backend: "file",
			Key:     "app_state",
		},
		Log:    models.LogConfig{Level: "warn"},
		Events: models.EventsConfig{Enabled: true},
		Alerts: models.AlertsConfig{
			MaxConsecutiveFailures: 3,
			MaxFallbackReads:       5,
		},
	}
}

// LoadConfig reads .taskcard.yaml from the base path using Viper, applies
// TASKCARD_* environment overrides, and validates the result. If the file does
// not exist, defaults (plus environment overrides) are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully and so that
	// AutomaticEnv can see every key.
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.start_id", cfg.API.StartID)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.key", cfg.Storage.Key)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("events.enabled", cfg.Events.Enabled)
	v.SetDefault("alerts.max_consecutive_failures", cfg.Alerts.MaxConsecutiveFailures)
	v.SetDefault("alerts.max_fallback_reads", cfg.Alerts.MaxFallbackReads)
	v.SetDefault("notifications.slack.webhook_url", cfg.Notifications.Slack.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.StartID = v.GetInt("api.start_id")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.API.Token = v.GetString("api.token")
	cfg.Storage.Backend = strings.ToLower(v.GetString("storage.backend"))
	cfg.Storage.Key = v.GetString("storage.key")
	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Events.Enabled = v.GetBool("events.enabled")
	cfg.Alerts.MaxConsecutiveFailures = v.GetInt("alerts.max_consecutive_failures")
	cfg.Alerts.MaxFallbackReads = v.GetInt("alerts.max_fallback_reads")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks the configuration against its validation tags and
// returns one error listing every offending key.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	err := cm.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", key, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// WriteStarterConfig writes the default configuration to .taskcard.yaml in the
// base path unless the file already exists. It returns the file path.
func (cm *viperConfigManager) WriteStarterConfig() (string, error) {
	path := filepath.Join(cm.basePath, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshalling starter config: %w", err)
	}
	if err := os.MkdirAll(cm.basePath, 0o755); err != nil {
		return "", fmt.Errorf("creating base path: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
