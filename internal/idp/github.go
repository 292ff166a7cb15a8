package idp

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/refactron/auth-front/internal/flowstate"
)

// GitHubProvider builds GitHub authorization URLs. GitHub uses plain OAuth
// 2.0 (not OIDC) and scopes/allow_signup vary by intent.
type GitHubProvider struct {
	config oauth2.Config
}

// NewGitHubProvider creates a GitHub provider for the given client id and
// callback location.
func NewGitHubProvider(clientID, redirectURI string) *GitHubProvider {
	return &GitHubProvider{
		config: oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Endpoint:    github.Endpoint,
		},
	}
}

// Name returns the provider identifier.
func (p *GitHubProvider) Name() flowstate.Provider {
	return flowstate.ProviderGitHub
}

// RedirectURI returns the configured callback location.
func (p *GitHubProvider) RedirectURI() string {
	return p.config.RedirectURL
}

// AuthURL generates the authorization URL.
//
// Login requests only user:email and sets allow_signup=false so a login
// button cannot accidentally create a GitHub-side account grant. Signup
// adds read:user (profile data for account creation) and allows signup.
func (p *GitHubProvider) AuthURL(state string, intent flowstate.Intent) string {
	scope := "user:email"
	allowSignup := "false"
	if intent == flowstate.IntentSignup {
		scope = "user:email read:user"
		allowSignup = "true"
	}

	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", scope),
		oauth2.SetAuthURLParam("allow_signup", allowSignup),
	)
}
