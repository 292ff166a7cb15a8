package flow

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/refactron/auth-front/internal/backend"
	"github.com/refactron/auth-front/internal/flowstate"
	"github.com/refactron/auth-front/internal/idp"
	"github.com/refactron/auth-front/internal/log"
)

// Manager orchestrates the browser-facing OAuth flow: it starts flows,
// validates callbacks, exchanges codes with the backend, and approves CLI
// device pairings.
type Manager struct {
	lifecycle *flowstate.Lifecycle
	store     flowstate.Store
	providers *idp.Registry
	backend   *backend.Client

	redirectDelay time.Duration

	// Deduplicates concurrent callback exchanges triggered by a double
	// render of the callback page.
	group singleflight.Group
}

// NewManager wires the flow manager
func NewManager(
	lifecycle *flowstate.Lifecycle,
	store flowstate.Store,
	providers *idp.Registry,
	backendClient *backend.Client,
	redirectDelay time.Duration,
) *Manager {
	return &Manager{
		lifecycle:     lifecycle,
		store:         store,
		providers:     providers,
		backend:       backendClient,
		redirectDelay: redirectDelay,
	}
}

// Begin starts an OAuth flow for the session and returns the authorization
// URL to navigate to. The missing-client-id check runs before the state
// write, so a misconfigured provider leaves no observable side effect.
func (m *Manager) Begin(ctx context.Context, sessionID string, provider flowstate.Provider, intent flowstate.Intent) (string, error) {
	p, err := m.providers.Get(provider)
	if err != nil {
		log.LogErrorWithFields("flow", "Refusing to start flow for unconfigured provider", map[string]any{
			"provider": provider,
		})
		return "", configError(err)
	}

	state, err := m.lifecycle.Begin(ctx, sessionID, provider, intent)
	if err != nil {
		return "", &UserError{Kind: KindBackend, Message: "Could not start sign-in, please try again", Retryable: true, cause: err}
	}

	log.LogInfoWithFields("flow", "Authorization redirect prepared", map[string]any{
		"provider": provider,
		"intent":   intent,
	})
	return p.AuthURL(state, intent), nil
}

// CallbackParams are the query parameters the provider redirected back with
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackOutcome is a completed exchange plus the navigation the caller
// should eventually perform.
type CallbackOutcome struct {
	Provider flowstate.Provider
	Intent   flowstate.Intent
	Result   *backend.ExchangeResult
	Redirect *RedirectCommand
}

// HandleCallback validates a provider callback and exchanges the code for a
// session via the backend.
//
// The whole handler is deduplicated per session/code/state triple: a second
// invocation while one is in flight (double render) shares the first's
// validation and single backend request.
func (m *Manager) HandleCallback(ctx context.Context, sessionID string, params CallbackParams, cookies []*http.Cookie) (*CallbackOutcome, error) {
	if params.Error != "" {
		log.LogWarnWithFields("flow", "Provider returned error on callback", map[string]any{
			"error": params.Error,
		})
		return nil, &UserError{
			Kind:    KindProviderDenied,
			Message: humanizeProviderError(params.Error, params.ErrorDescription),
			cause:   nil,
		}
	}

	if params.Code == "" || params.State == "" {
		return nil, &UserError{Kind: KindMalformedCallback, Message: msgMalformedCallback}
	}

	key := "callback:" + sessionID + ":" + params.Code + ":" + params.State
	v, err, shared := m.group.Do(key, func() (any, error) {
		return m.exchange(ctx, sessionID, params, cookies)
	})
	if shared {
		log.LogDebugWithFields("flow", "Duplicate callback invocation coalesced", map[string]any{
			"session": sessionID,
		})
	}
	if err != nil {
		return nil, err
	}
	return v.(*CallbackOutcome), nil
}

func (m *Manager) exchange(ctx context.Context, sessionID string, params CallbackParams, cookies []*http.Cookie) (*CallbackOutcome, error) {
	consumed, err := m.lifecycle.ValidateAndConsume(ctx, sessionID, params.State)
	if err != nil {
		log.LogWarnWithFields("flow", "Callback state validation failed", map[string]any{
			"error": err.Error(),
		})
		return nil, stateError(err)
	}

	provider, err := m.providers.Get(consumed.Provider)
	if err != nil {
		return nil, configError(err)
	}

	result, err := m.backend.ExchangeCode(ctx, backend.ExchangeRequest{
		Provider:    consumed.Provider,
		Code:        params.Code,
		State:       params.State,
		Intent:      consumed.Intent,
		RedirectURI: provider.RedirectURI(),
		Cookies:     cookies,
	})
	if err != nil {
		return nil, classifyExchangeError(err, consumed.Provider)
	}

	outcome := &CallbackOutcome{
		Provider: consumed.Provider,
		Intent:   consumed.Intent,
		Result:   result,
	}
	if result.RedirectTo != "" {
		outcome.Redirect = &RedirectCommand{Target: result.RedirectTo, Delay: m.redirectDelay}
	}
	return outcome, nil
}

// CarryDeviceCode stores a device user code so it survives a full-page
// login redirect through an identity provider.
func (m *Manager) CarryDeviceCode(ctx context.Context, sessionID, userCode string) error {
	return m.store.PutDeviceCode(ctx, sessionID, userCode)
}

// ResolveDeviceCode picks the device user code for a confirmation page:
// the carried slot wins over the URL query, and the slot is cleared by the
// read no matter which source is used.
func (m *Manager) ResolveDeviceCode(ctx context.Context, sessionID, queryCode string) (string, error) {
	carried, err := m.store.TakeDeviceCode(ctx, sessionID)
	if err != nil {
		log.LogWarnWithFields("flow", "Failed to read carried device code", map[string]any{
			"error": err.Error(),
		})
	}
	if carried != "" {
		return carried, nil
	}
	if queryCode != "" {
		return queryCode, nil
	}
	return "", &UserError{Kind: KindConfig, Message: msgNoDeviceCode}
}
