package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/refactron/auth-front/internal/flowstate"
	"github.com/refactron/auth-front/internal/log"
)

// ConnectivityError wraps a request that never reached the backend. It is
// distinguished from an authentication rejection so the UI can suggest a
// retry instead of a flow restart.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the backend, carrying whatever
// message the backend provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Client talks to the Refactron auth API.
type Client struct {
	apiBaseURL string
	httpClient *http.Client
}

// NewClient creates a backend client for the given API base URL
func NewClient(apiBaseURL string) *Client {
	return &Client{
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExchangeRequest carries a validated callback to the backend
type ExchangeRequest struct {
	Provider    flowstate.Provider
	Code        string
	State       string
	Intent      flowstate.Intent
	RedirectURI string

	// Cookies forwarded from the browser so backend-set session cookies
	// round-trip (credentials-included semantics).
	Cookies []*http.Cookie
}

// ExchangeResult is the backend's success payload. The body is opaque to
// this module; only the redirect target is lifted out for navigation.
type ExchangeResult struct {
	RedirectTo string
	Payload    json.RawMessage
	SetCookies []*http.Cookie
}

// errorBody is the shape backends use for failure messages
type errorBody struct {
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) best() string {
	if b.Message != "" {
		return b.Message
	}
	if b.ErrorDescription != "" {
		return b.ErrorDescription
	}
	return b.Error
}

// ExchangeCode posts an authorization code to the backend callback endpoint
// and returns the opaque session payload.
func (c *Client) ExchangeCode(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	body, err := json.Marshal(map[string]string{
		"code":        req.Code,
		"state":       req.State,
		"type":        string(req.Intent),
		"redirectUri": req.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling exchange request: %w", err)
	}

	url := fmt.Sprintf("%s/api/auth/callback/%s", c.apiBaseURL, req.Provider)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building exchange request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.LogWarnWithFields("backend", "Code exchange request failed", map[string]any{
			"provider": req.Provider,
			"error":    err.Error(),
		})
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		log.LogWarnWithFields("backend", "Code exchange rejected", map[string]any{
			"provider": req.Provider,
			"status":   resp.StatusCode,
		})
		return nil, &APIError{Status: resp.StatusCode, Message: eb.best()}
	}

	var payload struct {
		RedirectTo string `json:"redirect_to"`
	}
	_ = json.Unmarshal(data, &payload)

	log.LogInfoWithFields("backend", "Code exchange succeeded", map[string]any{
		"provider": req.Provider,
	})
	return &ExchangeResult{
		RedirectTo: payload.RedirectTo,
		Payload:    json.RawMessage(data),
		SetCookies: resp.Cookies(),
	}, nil
}

// ConfirmDevice approves a pending CLI login identified by userCode. The
// bearer token is optional; cookies are always forwarded.
func (c *Client) ConfirmDevice(ctx context.Context, userCode, bearerToken string, cookies []*http.Cookie) error {
	body, err := json.Marshal(map[string]string{"user_code": userCode})
	if err != nil {
		return fmt.Errorf("marshaling confirm request: %w", err)
	}

	url := c.apiBaseURL + "/api/oauth/device/confirm"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building confirm request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	for _, cookie := range cookies {
		httpReq.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.LogWarnWithFields("backend", "Device confirm request failed", map[string]any{
			"error": err.Error(),
		})
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		log.LogWarnWithFields("backend", "Device confirm rejected", map[string]any{
			"status": resp.StatusCode,
		})
		return &APIError{Status: resp.StatusCode, Message: eb.best()}
	}

	log.Logf("Device confirmation accepted")
	return nil
}
