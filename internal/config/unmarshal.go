package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnmarshalJSON implements custom unmarshaling for AppConfig
func (a *AppConfig) UnmarshalJSON(data []byte) error {
	// Use a raw type to parse references
	type rawApp struct {
		BaseURL    json.RawMessage `json:"baseURL"`
		Addr       json.RawMessage `json:"addr"`
		APIBaseURL json.RawMessage `json:"apiBaseURL"`
		LoginPath  string          `json:"loginPath"`
	}

	var raw rawApp
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.LoginPath = raw.LoginPath
	if a.LoginPath == "" {
		a.LoginPath = "/login"
	}

	if raw.BaseURL != nil {
		parsed, err := ParseConfigValue(raw.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing baseURL: %w", err)
		}
		a.BaseURL = parsed.value
	}

	if raw.Addr != nil {
		parsed, err := ParseConfigValue(raw.Addr)
		if err != nil {
			return fmt.Errorf("parsing addr: %w", err)
		}
		a.Addr = parsed.value
	}

	if raw.APIBaseURL != nil {
		parsed, err := ParseConfigValue(raw.APIBaseURL)
		if err != nil {
			return fmt.Errorf("parsing apiBaseURL: %w", err)
		}
		a.APIBaseURL = parsed.value
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for ProviderConfig.
// A client id referencing an unset environment variable is not a load
// error: the flow layer reports the missing variable by name when that
// provider is actually requested.
func (p *ProviderConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		ClientID json.RawMessage `json:"clientId"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.ClientID == nil {
		return nil
	}

	parsed, err := ParseOptionalConfigValue(raw.ClientID)
	if err != nil {
		return fmt.Errorf("parsing clientId: %w", err)
	}
	p.ClientID = parsed.value
	p.EnvVar = parsed.envVar
	return nil
}

// UnmarshalJSON implements custom unmarshaling for FlowStoreConfig
func (f *FlowStoreConfig) UnmarshalJSON(data []byte) error {
	type rawStore struct {
		Kind                FlowStoreKind   `json:"kind"`
		CleanupInterval     string          `json:"cleanupInterval"`
		RedisAddr           json.RawMessage `json:"redisAddr"`
		RedisPassword       json.RawMessage `json:"redisPassword"`
		RedisDB             int             `json:"redisDb"`
		GCPProject          json.RawMessage `json:"gcpProject"`
		FirestoreDatabase   string          `json:"firestoreDatabase"`
		FirestoreCollection string          `json:"firestoreCollection"`
	}

	var raw rawStore
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Kind = raw.Kind
	f.RedisDB = raw.RedisDB
	f.FirestoreDatabase = raw.FirestoreDatabase
	f.FirestoreCollection = raw.FirestoreCollection

	if raw.CleanupInterval != "" {
		interval, err := time.ParseDuration(raw.CleanupInterval)
		if err != nil {
			return fmt.Errorf("parsing cleanupInterval: %w", err)
		}
		f.CleanupInterval = interval
	}

	if raw.RedisAddr != nil {
		parsed, err := ParseConfigValue(raw.RedisAddr)
		if err != nil {
			return fmt.Errorf("parsing redisAddr: %w", err)
		}
		f.RedisAddr = parsed.value
	}

	if raw.RedisPassword != nil {
		parsed, err := ParseConfigValue(raw.RedisPassword)
		if err != nil {
			return fmt.Errorf("parsing redisPassword: %w", err)
		}
		f.RedisPassword = Secret(parsed.value)
	}

	if raw.GCPProject != nil {
		parsed, err := ParseConfigValue(raw.GCPProject)
		if err != nil {
			return fmt.Errorf("parsing gcpProject: %w", err)
		}
		f.GCPProject = parsed.value
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for DeviceConfig
func (d *DeviceConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		PagePath      string `json:"pagePath"`
		RedirectDelay string `json:"redirectDelay"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.PagePath = raw.PagePath

	if raw.RedirectDelay != "" {
		delay, err := time.ParseDuration(raw.RedirectDelay)
		if err != nil {
			return fmt.Errorf("parsing redirectDelay: %w", err)
		}
		d.RedirectDelay = delay
	}

	return nil
}
