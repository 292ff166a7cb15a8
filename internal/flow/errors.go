package flow

import (
	"errors"

	"github.com/refactron/auth-front/internal/backend"
	"github.com/refactron/auth-front/internal/flowstate"
	"github.com/refactron/auth-front/internal/idp"
)

// ErrorKind classifies a flow failure. Every failure surfaced by this
// package is a UserError with one of these kinds; raw errors never cross
// into the UI layer.
type ErrorKind string

const (
	// KindConfig: a provider was requested without a client id, or a
	// device page was opened without a code. Fatal, not retryable.
	KindConfig ErrorKind = "config"

	// KindState: CSRF state mismatch or expiry. The user must restart
	// the flow from the beginning.
	KindState ErrorKind = "state"

	// KindProviderDenied: the identity provider redirected back with an
	// error (user cancelled, provider failure).
	KindProviderDenied ErrorKind = "provider_denied"

	// KindMalformedCallback: callback missing code or state without an
	// explicit provider error. Same severity as a state error.
	KindMalformedCallback ErrorKind = "malformed_callback"

	// KindConnectivity: the backend was unreachable. Retrying the same
	// action may succeed.
	KindConnectivity ErrorKind = "connectivity"

	// KindBackend: the backend rejected the exchange or confirmation.
	KindBackend ErrorKind = "backend"
)

// Fixed user-facing messages for failures that must not leak detail
const (
	msgMalformedCallback = "Invalid callback, missing required parameters"
	msgInvalidState      = "Invalid or expired OAuth state, please try again"
	msgConnectivity      = "Unable to reach the authentication server. Check your connection and try again."
	msgDeviceFailed      = "Device authorization failed, please try again"
	msgNoDeviceCode      = "No device code provided. Restart the login from your terminal."
)

// UserError is a flow failure resolved to a user-displayable message.
type UserError struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	cause     error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.cause
}

func configError(err error) *UserError {
	return &UserError{Kind: KindConfig, Message: err.Error(), cause: err}
}

func stateError(err error) *UserError {
	return &UserError{Kind: KindState, Message: msgInvalidState, cause: err}
}

// classifyExchangeError maps backend client failures onto the user-facing
// taxonomy. Connectivity problems get retry guidance distinct from an
// authentication rejection.
func classifyExchangeError(err error, provider flowstate.Provider) *UserError {
	var connErr *backend.ConnectivityError
	if errors.As(err, &connErr) {
		return &UserError{Kind: KindConnectivity, Message: msgConnectivity, Retryable: true, cause: err}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "Failed to authenticate with " + string(provider) + ", please try again"
		}
		return &UserError{Kind: KindBackend, Message: message, Retryable: true, cause: err}
	}

	var missing *idp.MissingClientIDError
	if errors.As(err, &missing) {
		return configError(err)
	}

	return &UserError{Kind: KindBackend, Message: "Authentication failed, please try again", Retryable: true, cause: err}
}

// classifyDeviceError maps device-confirmation failures. All are retryable
// except connectivity keeps its own guidance.
func classifyDeviceError(err error) *UserError {
	var connErr *backend.ConnectivityError
	if errors.As(err, &connErr) {
		return &UserError{Kind: KindConnectivity, Message: msgConnectivity, Retryable: true, cause: err}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = msgDeviceFailed
		}
		return &UserError{Kind: KindBackend, Message: message, Retryable: true, cause: err}
	}

	return &UserError{Kind: KindBackend, Message: msgDeviceFailed, Retryable: true, cause: err}
}
