package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/refactron/auth-front/internal/flow"
	"github.com/refactron/auth-front/internal/flowstate"
	jsonwriter "github.com/refactron/auth-front/internal/json"
	"github.com/refactron/auth-front/internal/log"
)

// OAuthHandlers serves the browser-facing authorization endpoints
type OAuthHandlers struct {
	manager   *flow.Manager
	loginPath string
}

// NewOAuthHandlers creates OAuth handlers with dependency injection
func NewOAuthHandlers(manager *flow.Manager, loginPath string) *OAuthHandlers {
	return &OAuthHandlers{
		manager:   manager,
		loginPath: loginPath,
	}
}

// StartHandler begins an authorization flow: it stores fresh state for the
// browser and redirects to the provider's consent screen.
//
// GET /oauth/{provider}/start?intent=login|signup
func (h *OAuthHandlers) StartHandler(w http.ResponseWriter, r *http.Request) {
	provider, err := flowstate.ParseProvider(r.PathValue("provider"))
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Unknown provider")
		return
	}

	intent, err := flowstate.ParseIntent(r.URL.Query().Get("intent"))
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Unknown intent")
		return
	}

	authURL, err := h.manager.Begin(r.Context(), BrowserIDFromContext(r.Context()), provider, intent)
	if err != nil {
		h.renderFlowError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler finishes an authorization flow: it validates the state
// the provider echoed back, exchanges the code via the backend, relays the
// backend's session cookies, and renders a page that navigates to the
// post-login destination after a short delay.
//
// GET /oauth/callback/{provider}?code=...&state=...
func (h *OAuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := flowstate.ParseProvider(r.PathValue("provider")); err != nil {
		jsonwriter.WriteBadRequest(w, "Unknown provider")
		return
	}

	query := r.URL.Query()
	params := flow.CallbackParams{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	outcome, err := h.manager.HandleCallback(r.Context(), BrowserIDFromContext(r.Context()), params, r.Cookies())
	if err != nil {
		h.renderFlowError(w, err)
		return
	}

	for _, c := range outcome.Result.SetCookies {
		http.SetCookie(w, c)
	}

	target := "/"
	delay := time.Duration(0)
	if outcome.Redirect != nil {
		target = outcome.Redirect.Target
		delay = outcome.Redirect.Delay
	}

	data := CallbackPageData{
		Provider:     string(outcome.Provider),
		RedirectTo:   target,
		DelaySeconds: strconv.FormatFloat(delay.Seconds(), 'f', -1, 64),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackPageTemplate.Execute(w, data); err != nil {
		log.LogError("Failed to render callback page: %v", err)
	}
}

// renderFlowError maps a flow failure to a status code and an HTML error
// page with optional retry guidance.
func (h *OAuthHandlers) renderFlowError(w http.ResponseWriter, err error) {
	var userErr *flow.UserError
	if !errors.As(err, &userErr) {
		userErr = &flow.UserError{Kind: flow.KindBackend, Message: "Authentication failed, please try again", Retryable: true}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusForKind(userErr.Kind))

	data := ErrorPageData{
		Title:     titleForKind(userErr.Kind),
		Message:   userErr.Message,
		Retryable: userErr.Kind != flow.KindConfig,
		RetryURL:  h.loginPath,
	}
	if renderErr := errorPageTemplate.Execute(w, data); renderErr != nil {
		log.LogError("Failed to render error page: %v", renderErr)
	}
}

func statusForKind(kind flow.ErrorKind) int {
	switch kind {
	case flow.KindConfig:
		return http.StatusInternalServerError
	case flow.KindState, flow.KindMalformedCallback, flow.KindProviderDenied:
		return http.StatusBadRequest
	case flow.KindConnectivity:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func titleForKind(kind flow.ErrorKind) string {
	switch kind {
	case flow.KindConfig:
		return "Configuration error"
	case flow.KindProviderDenied:
		return "Sign-in not completed"
	case flow.KindConnectivity:
		return "Connection problem"
	default:
		return "Sign-in failed"
	}
}
