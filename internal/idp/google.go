package idp

import (
	"golang.org/x/oauth2"

	"github.com/refactron/auth-front/internal/flowstate"
)

// googleAuthURL is the v2 authorization endpoint. The backend owns the
// token exchange, so only the authorization URL matters here.
const googleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// GoogleProvider builds Google authorization URLs.
type GoogleProvider struct {
	config oauth2.Config
}

// NewGoogleProvider creates a Google provider for the given client id and
// callback location.
func NewGoogleProvider(clientID, redirectURI string) *GoogleProvider {
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL: googleAuthURL,
			},
		},
	}
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() flowstate.Provider {
	return flowstate.ProviderGoogle
}

// RedirectURI returns the configured callback location.
func (p *GoogleProvider) RedirectURI() string {
	return p.config.RedirectURL
}

// AuthURL generates the authorization URL.
//
// Login asks for select_account so returning users can switch accounts.
// Signup additionally forces the consent screen; without it Google omits
// the account-linking data needed to create the account.
func (p *GoogleProvider) AuthURL(state string, intent flowstate.Intent) string {
	prompt := mergePrompts("select_account")
	if intent == flowstate.IntentSignup {
		prompt = mergePrompts("select_account", "consent")
	}

	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", prompt),
	)
}
