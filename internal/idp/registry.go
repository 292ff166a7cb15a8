package idp

import (
	"fmt"

	"github.com/refactron/auth-front/internal/config"
	"github.com/refactron/auth-front/internal/flowstate"
)

// Registry resolves a requested provider to a URL builder, failing with a
// MissingClientIDError when that provider has no client id configured. The
// check happens before any state write or redirect.
type Registry struct {
	providers map[flowstate.Provider]Provider
	envVars   map[flowstate.Provider]string
}

// NewRegistry builds the provider set from configuration. Callback routes
// live under {baseURL}/oauth/callback/{provider}.
func NewRegistry(cfg config.ProvidersConfig, baseURL string) *Registry {
	r := &Registry{
		providers: make(map[flowstate.Provider]Provider),
		envVars: map[flowstate.Provider]string{
			flowstate.ProviderGoogle: cfg.Google.EnvVar,
			flowstate.ProviderGitHub: cfg.GitHub.EnvVar,
		},
	}

	if cfg.Google.Configured() {
		r.providers[flowstate.ProviderGoogle] = NewGoogleProvider(
			cfg.Google.ClientID,
			redirectURI(baseURL, flowstate.ProviderGoogle),
		)
	}
	if cfg.GitHub.Configured() {
		r.providers[flowstate.ProviderGitHub] = NewGitHubProvider(
			cfg.GitHub.ClientID,
			redirectURI(baseURL, flowstate.ProviderGitHub),
		)
	}

	return r
}

// Get returns the provider, or a MissingClientIDError naming the missing
// setting.
func (r *Registry) Get(name flowstate.Provider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, &MissingClientIDError{Provider: name, EnvVar: r.envVars[name]}
	}
	return p, nil
}

func redirectURI(baseURL string, provider flowstate.Provider) string {
	return fmt.Sprintf("%s/oauth/callback/%s", baseURL, provider)
}
