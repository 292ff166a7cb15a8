package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, "v1") {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	// Parse directly into typed Config struct. The custom UnmarshalJSON
	// methods resolve env vars immediately.
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.FlowStore.Kind == "" {
		config.FlowStore.Kind = FlowStoreMemory
	}
	if config.FlowStore.CleanupInterval == 0 {
		config.FlowStore.CleanupInterval = time.Minute
	}
	if config.FlowStore.Kind == FlowStoreFirestore {
		if config.FlowStore.FirestoreDatabase == "" {
			config.FlowStore.FirestoreDatabase = "(default)"
		}
		if config.FlowStore.FirestoreCollection == "" {
			config.FlowStore.FirestoreCollection = "auth_front_flows"
		}
	}
	if config.App.LoginPath == "" {
		config.App.LoginPath = "/login"
	}
	if config.Device.PagePath == "" {
		config.Device.PagePath = "/device"
	}
	if config.Device.RedirectDelay == 0 {
		config.Device.RedirectDelay = 1500 * time.Millisecond
	}

	// Provider sections may be omitted entirely; fall back to the
	// conventional env vars so the "missing setting" error can still name
	// something actionable.
	if config.Providers.Google.EnvVar == "" && config.Providers.Google.ClientID == "" {
		config.Providers.Google.EnvVar = DefaultGoogleClientIDEnv
		config.Providers.Google.ClientID = os.Getenv(DefaultGoogleClientIDEnv)
	}
	if config.Providers.GitHub.EnvVar == "" && config.Providers.GitHub.ClientID == "" {
		config.Providers.GitHub.EnvVar = DefaultGitHubClientIDEnv
		config.Providers.GitHub.ClientID = os.Getenv(DefaultGitHubClientIDEnv)
	}
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.App.BaseURL == "" {
		return fmt.Errorf("app.baseURL is required")
	}
	if config.App.Addr == "" {
		return fmt.Errorf("app.addr is required")
	}
	if config.App.APIBaseURL == "" {
		return fmt.Errorf("app.apiBaseURL is required")
	}

	switch config.FlowStore.Kind {
	case FlowStoreMemory:
	case FlowStoreRedis:
		if config.FlowStore.RedisAddr == "" {
			return fmt.Errorf("flowStore.redisAddr is required when using redis storage")
		}
	case FlowStoreFirestore:
		if config.FlowStore.GCPProject == "" {
			return fmt.Errorf("flowStore.gcpProject is required when using firestore storage")
		}
	default:
		return fmt.Errorf("unknown flowStore.kind: %s", config.FlowStore.Kind)
	}

	if config.FlowStore.CleanupInterval < 0 {
		return fmt.Errorf("flowStore.cleanupInterval cannot be negative")
	}
	if config.Device.RedirectDelay < 0 {
		return fmt.Errorf("device.redirectDelay cannot be negative")
	}

	return nil
}
