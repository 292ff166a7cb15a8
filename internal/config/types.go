package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// FlowStoreKind selects the backend holding in-flight OAuth flow state
type FlowStoreKind string

const (
	FlowStoreMemory    FlowStoreKind = "memory"
	FlowStoreRedis     FlowStoreKind = "redis"
	FlowStoreFirestore FlowStoreKind = "firestore"
)

// Default environment variables consulted for provider client IDs when the
// config file does not override them.
const (
	DefaultGoogleClientIDEnv = "REFACTRON_GOOGLE_CLIENT_ID"
	DefaultGitHubClientIDEnv = "REFACTRON_GITHUB_CLIENT_ID"
)

// AppConfig holds the front's own addresses and the backend API location
type AppConfig struct {
	BaseURL    string `json:"-"`
	Addr       string `json:"-"`
	APIBaseURL string `json:"-"`
	LoginPath  string `json:"loginPath,omitempty"`
}

// ProviderConfig holds one identity provider's client identifier.
// EnvVar records where the value came from (or should have come from) so a
// missing client id can be reported by name at flow-initiation time.
type ProviderConfig struct {
	ClientID string `json:"-"`
	EnvVar   string `json:"-"`
}

// Configured reports whether a usable client id is present
func (p ProviderConfig) Configured() bool {
	return p.ClientID != ""
}

// ProvidersConfig holds per-provider OAuth client configuration
type ProvidersConfig struct {
	Google ProviderConfig `json:"google"`
	GitHub ProviderConfig `json:"github"`
}

// FlowStoreConfig selects and configures the flow-state backend
type FlowStoreConfig struct {
	Kind            FlowStoreKind `json:"kind,omitempty"`
	CleanupInterval time.Duration `json:"-"`

	// Redis backend
	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword Secret `json:"-"`
	RedisDB       int    `json:"redisDb,omitempty"`

	// Firestore backend
	GCPProject          string `json:"gcpProject,omitempty"`
	FirestoreDatabase   string `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string `json:"firestoreCollection,omitempty"`
}

// DeviceConfig configures the CLI device-confirmation surface
type DeviceConfig struct {
	PagePath      string        `json:"pagePath,omitempty"`
	RedirectDelay time.Duration `json:"-"`
}

// Config represents the config structure with resolved values
type Config struct {
	App       AppConfig       `json:"app"`
	Providers ProvidersConfig `json:"providers"`
	FlowStore FlowStoreConfig `json:"flowStore"`
	Device    DeviceConfig    `json:"device"`
}

// RawConfigValue represents a value that was either a literal string or an
// env reference. This is only used during parsing, not in the final config.
type RawConfigValue struct {
	value  string
	envVar string
}

// ParseConfigValue parses a JSON value that could be a string or an
// {"$env": "VAR"} reference object. A referenced variable that is unset is
// an error; use ParseOptionalConfigValue where absence is tolerated.
func ParseConfigValue(raw json.RawMessage) (*RawConfigValue, error) {
	parsed, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	if parsed.envVar != "" && parsed.value == "" {
		return nil, fmt.Errorf("environment variable %s not set", parsed.envVar)
	}
	return parsed, nil
}

// ParseOptionalConfigValue parses like ParseConfigValue but an unset
// environment variable yields an empty value instead of an error. The env
// var name is preserved so callers can report it later.
func ParseOptionalConfigValue(raw json.RawMessage) (*RawConfigValue, error) {
	return parseValue(raw)
}

func parseValue(raw json.RawMessage) (*RawConfigValue, error) {
	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return &RawConfigValue{value: str}, nil
	}

	// Try reference object
	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return nil, fmt.Errorf("unknown reference type in config value")
	}

	value := os.Getenv(envVar)
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return &RawConfigValue{value: value, envVar: envVar}, nil
}
