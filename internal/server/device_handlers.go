package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/refactron/auth-front/internal/cookie"
	"github.com/refactron/auth-front/internal/flow"
	jsonwriter "github.com/refactron/auth-front/internal/json"
	"github.com/refactron/auth-front/internal/log"
)

// DeviceHandlers serves the CLI pairing confirmation pages. Confirmations
// are tracked per browser so a double-submitted form cannot approve twice.
type DeviceHandlers struct {
	manager    *flow.Manager
	loginPath  string
	devicePath string

	mu            sync.Mutex
	confirmations map[string]*flow.DeviceConfirmation
}

// NewDeviceHandlers creates device handlers with dependency injection
func NewDeviceHandlers(manager *flow.Manager, loginPath, devicePath string) *DeviceHandlers {
	return &DeviceHandlers{
		manager:       manager,
		loginPath:     loginPath,
		devicePath:    devicePath,
		confirmations: make(map[string]*flow.DeviceConfirmation),
	}
}

// PageHandler shows the pairing confirmation page for a device user code.
// An unauthenticated visitor is bounced through login first; the code is
// parked server-side so it survives the provider round trip.
//
// GET /device?user_code=XXXX-XXXX
func (h *DeviceHandlers) PageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := BrowserIDFromContext(r.Context())
	queryCode := r.URL.Query().Get("user_code")

	if !isAuthenticated(r) {
		if queryCode != "" {
			if err := h.manager.CarryDeviceCode(r.Context(), sessionID, queryCode); err != nil {
				log.LogError("Failed to carry device code across login: %v", err)
			}
		}
		http.Redirect(w, r, h.loginPath+"?next="+url.QueryEscape(h.devicePath), http.StatusFound)
		return
	}

	userCode, err := h.manager.ResolveDeviceCode(r.Context(), sessionID, queryCode)
	if err != nil {
		h.renderDeviceError(w, err)
		return
	}

	h.mu.Lock()
	conf, ok := h.confirmations[sessionID]
	if !ok || conf.UserCode() != userCode {
		conf = h.manager.NewDeviceConfirmation(userCode)
		h.confirmations[sessionID] = conf
	}
	h.mu.Unlock()

	data := DevicePageData{
		UserCode:   userCode,
		ConfirmURL: h.devicePath + "/confirm",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := devicePageTemplate.Execute(w, data); err != nil {
		log.LogError("Failed to render device page: %v", err)
	}
}

type confirmRequest struct {
	UserCode string `json:"user_code"`
}

type confirmResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ConfirmHandler approves the pending CLI login. Repeat submissions while
// a confirmation is in flight, or after success, are absorbed without a
// second backend call.
//
// POST /device/confirm {"user_code": "XXXX-XXXX"}
func (h *DeviceHandlers) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := BrowserIDFromContext(r.Context())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserCode == "" {
		jsonwriter.WriteBadRequest(w, "Missing user_code")
		return
	}

	h.mu.Lock()
	conf, ok := h.confirmations[sessionID]
	if !ok || conf.UserCode() != req.UserCode {
		conf = h.manager.NewDeviceConfirmation(req.UserCode)
		h.confirmations[sessionID] = conf
	}
	h.mu.Unlock()

	status, userErr := conf.Confirm(r.Context(), bearerToken(r), r.Cookies())
	switch status {
	case flow.DeviceSuccess:
		_ = jsonwriter.Write(w, confirmResponse{Status: string(status)})
	case flow.DevicePending:
		_ = jsonwriter.WriteResponse(w, http.StatusAccepted, confirmResponse{Status: string(status)})
	default:
		code := http.StatusBadGateway
		message := "Device authorization failed, please try again"
		if userErr != nil {
			code = statusForKind(userErr.Kind)
			message = userErr.Message
		}
		_ = jsonwriter.WriteResponse(w, code, confirmResponse{Status: string(status), Message: message})
	}
}

func (h *DeviceHandlers) renderDeviceError(w http.ResponseWriter, err error) {
	var userErr *flow.UserError
	if !errors.As(err, &userErr) {
		userErr = &flow.UserError{Kind: flow.KindBackend, Message: "Device authorization failed, please try again", Retryable: true}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusForKind(userErr.Kind))

	data := ErrorPageData{
		Title:     "Device authorization",
		Message:   userErr.Message,
		Retryable: userErr.Retryable,
		RetryURL:  h.devicePath,
	}
	if renderErr := errorPageTemplate.Execute(w, data); renderErr != nil {
		log.LogError("Failed to render device error page: %v", renderErr)
	}
}

// isAuthenticated reports whether the request carries backend credentials,
// either the relayed session cookie or a bearer token.
func isAuthenticated(r *http.Request) bool {
	if value, err := cookie.GetAuth(r); err == nil && value != "" {
		return true
	}
	return bearerToken(r) != ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
