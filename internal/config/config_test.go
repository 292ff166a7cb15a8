package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const minimalConfig = `{
	"version": "v1",
	"app": {
		"baseURL": "https://app.refactron.com",
		"addr": ":8080",
		"apiBaseURL": "https://api.refactron.com"
	}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, FlowStoreMemory, cfg.FlowStore.Kind)
	assert.Equal(t, time.Minute, cfg.FlowStore.CleanupInterval)
	assert.Equal(t, "/login", cfg.App.LoginPath)
	assert.Equal(t, "/device", cfg.Device.PagePath)
	assert.Equal(t, 1500*time.Millisecond, cfg.Device.RedirectDelay)
}

func TestLoadRequiresVersion(t *testing.T) {
	_, err := Load(writeConfig(t, `{"app":{"baseURL":"x","addr":":1","apiBaseURL":"y"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version is required")

	_, err = Load(writeConfig(t, `{"version":"v2","app":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestLoadResolvesEnvReferences(t *testing.T) {
	t.Setenv("TEST_API_BASE", "https://api.staging.refactron.com")

	cfg, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": {"$env": "TEST_API_BASE"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "https://api.staging.refactron.com", cfg.App.APIBaseURL)
}

func TestLoadFailsOnUnsetRequiredEnv(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": {"$env": "DEFINITELY_UNSET_VAR_42"}
		}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_UNSET_VAR_42")
}

func TestProviderClientIDToleratesUnsetEnv(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": "https://api.refactron.com"
		},
		"providers": {
			"google": {"clientId": {"$env": "UNSET_GOOGLE_CLIENT_ID"}}
		}
	}`))
	require.NoError(t, err, "an unset provider env var is a runtime error, not a load error")

	assert.False(t, cfg.Providers.Google.Configured())
	assert.Equal(t, "UNSET_GOOGLE_CLIENT_ID", cfg.Providers.Google.EnvVar)
}

func TestProviderEnvFallback(t *testing.T) {
	t.Setenv(DefaultGitHubClientIDEnv, "gh-client-from-env")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.True(t, cfg.Providers.GitHub.Configured())
	assert.Equal(t, "gh-client-from-env", cfg.Providers.GitHub.ClientID)
	assert.Equal(t, DefaultGoogleClientIDEnv, cfg.Providers.Google.EnvVar)
}

func TestValidateRedisRequiresAddr(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": "https://api.refactron.com"
		},
		"flowStore": {"kind": "redis"}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redisAddr is required")
}

func TestValidateUnknownStoreKind(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": "https://api.refactron.com"
		},
		"flowStore": {"kind": "etcd"}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flowStore.kind")
}

func TestFirestoreDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseURL": "https://app.refactron.com",
			"addr": ":8080",
			"apiBaseURL": "https://api.refactron.com"
		},
		"flowStore": {"kind": "firestore", "gcpProject": "refactron-prod"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "(default)", cfg.FlowStore.FirestoreDatabase)
	assert.Equal(t, "auth_front_flows", cfg.FlowStore.FirestoreCollection)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "***", s.String())

	data, err := json.Marshal(struct {
		Password Secret `json:"password"`
	}{Password: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"password":"***"}`, string(data))

	assert.Equal(t, "", Secret("").String())
}

func TestValidateFileWarnsOnMemoryStore(t *testing.T) {
	result, err := ValidateFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	var sawMemoryWarning bool
	for _, w := range result.Warnings {
		if w.Path == "flowStore.kind" {
			sawMemoryWarning = true
		}
	}
	assert.True(t, sawMemoryWarning)
}

func TestValidateFileReportsLoadErrors(t *testing.T) {
	result, err := ValidateFile(writeConfig(t, `{"version":"v1"}`))
	require.NoError(t, err)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "baseURL is required")
}
