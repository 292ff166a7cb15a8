package idp

import (
	"fmt"
	"strings"

	"github.com/refactron/auth-front/internal/flowstate"
)

// Provider builds provider-specific authorization redirect targets.
// Construction is pure: the returned URL is handed to the HTTP layer, which
// performs the actual navigation.
type Provider interface {
	// Name returns the provider identifier ("google", "github").
	Name() flowstate.Provider

	// AuthURL generates the authorization URL binding the given state
	// token, with scopes and consent prompts chosen by intent.
	AuthURL(state string, intent flowstate.Intent) string

	// RedirectURI returns the callback location registered with the
	// provider.
	RedirectURI() string
}

// MissingClientIDError reports that a provider was requested without a
// configured OAuth client id. It names the setting so the operator knows
// what to fix.
type MissingClientIDError struct {
	Provider flowstate.Provider
	EnvVar   string
}

func (e *MissingClientIDError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("%s OAuth client id is not configured (set %s)", e.Provider, e.EnvVar)
	}
	return fmt.Sprintf("%s OAuth client id is not configured", e.Provider)
}

// mergePrompts joins prompt values space-separated, dropping duplicates
// while preserving order.
func mergePrompts(values ...string) string {
	seen := make(map[string]bool, len(values))
	merged := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		merged = append(merged, v)
	}
	return strings.Join(merged, " ")
}
