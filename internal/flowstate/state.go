package flowstate

import (
	"fmt"
	"time"
)

// Provider identifies which identity provider a flow targets
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// ParseProvider validates a provider name from a URL path or query
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderGitHub:
		return ProviderGitHub, nil
	default:
		return "", fmt.Errorf("unknown provider: %q", s)
	}
}

// Intent distinguishes a login flow from a signup flow. It alters the
// requested scopes and consent prompts per provider.
type Intent string

const (
	IntentLogin  Intent = "login"
	IntentSignup Intent = "signup"
)

// ParseIntent validates an intent value, defaulting to login
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentLogin, "":
		return IntentLogin, nil
	case IntentSignup:
		return IntentSignup, nil
	default:
		return "", fmt.Errorf("unknown intent: %q", s)
	}
}

// StateTTL is how long a pending OAuth flow remains valid
const StateTTL = 10 * time.Minute

// FlowState is the single pending OAuth flow bound to one browser session.
// Starting a new flow overwrites any previous one unconditionally; only one
// concurrent flow per session is supported.
type FlowState struct {
	State     string   `json:"state" firestore:"state"`
	Provider  Provider `json:"provider" firestore:"provider"`
	Intent    Intent   `json:"intent" firestore:"intent"`
	CreatedAt int64    `json:"created_at" firestore:"created_at"` // ms since epoch
}

// ExpiredAt reports whether the flow is older than StateTTL at the given time
func (f FlowState) ExpiredAt(now time.Time) bool {
	created := time.UnixMilli(f.CreatedAt)
	return now.Sub(created) > StateTTL
}
