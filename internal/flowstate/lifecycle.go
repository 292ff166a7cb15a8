package flowstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/refactron/auth-front/internal/crypto"
	"github.com/refactron/auth-front/internal/log"
)

var (
	// ErrStateMismatch is returned when the callback state does not match
	// the stored one, or no flow is pending at all.
	ErrStateMismatch = errors.New("state token mismatch")

	// ErrStateExpired is returned when the pending flow outlived StateTTL
	ErrStateExpired = errors.New("state token expired")

	// ErrStateIncomplete is returned when the stored flow lost its
	// provider or intent and cannot be trusted.
	ErrStateIncomplete = errors.New("stored flow state incomplete")
)

// ConsumeResult is what a successfully validated callback learns about the
// flow it completes.
type ConsumeResult struct {
	Provider Provider
	Intent   Intent
}

// Lifecycle manages the single-use CSRF state binding an outbound
// authorization redirect to its eventual callback.
type Lifecycle struct {
	store Store
	now   func() time.Time
}

// LifecycleOption configures a Lifecycle
type LifecycleOption func(*Lifecycle)

// WithClock overrides the time source (for testing expiry)
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		l.now = now
	}
}

// NewLifecycle creates a Lifecycle over the given store
func NewLifecycle(store Store, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin generates a fresh state token and records the pending flow for the
// session, overwriting any previous flow. It returns the token to embed in
// the authorization URL.
func (l *Lifecycle) Begin(ctx context.Context, sessionID string, provider Provider, intent Intent) (string, error) {
	token, err := crypto.GenerateStateToken()
	if err != nil {
		return "", fmt.Errorf("generating state token: %w", err)
	}

	state := FlowState{
		State:     token,
		Provider:  provider,
		Intent:    intent,
		CreatedAt: l.now().UnixMilli(),
	}
	if err := l.store.PutFlow(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("storing flow state: %w", err)
	}

	log.LogDebugWithFields("flowstate", "Flow started", map[string]any{
		"provider": provider,
		"intent":   intent,
	})
	return token, nil
}

// ValidateAndConsume checks a callback state token against the pending flow.
//
// The flow slot is strictly single-use: on success the slot is cleared, so a
// replay of the same token fails. An expired or incomplete slot is cleared
// too. A mismatch has no side effects; the token comparison happens before
// any other check so a wrong token learns nothing about the stored flow.
func (l *Lifecycle) ValidateAndConsume(ctx context.Context, sessionID, receivedState string) (*ConsumeResult, error) {
	stored, err := l.store.GetFlow(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrFlowNotFound) {
			return nil, ErrStateMismatch
		}
		return nil, fmt.Errorf("reading flow state: %w", err)
	}

	if receivedState == "" || stored.State != receivedState {
		return nil, ErrStateMismatch
	}

	if stored.ExpiredAt(l.now()) {
		if err := l.store.ClearFlow(ctx, sessionID); err != nil {
			log.LogWarnWithFields("flowstate", "Failed to clear expired flow", map[string]any{
				"error": err.Error(),
			})
		}
		return nil, ErrStateExpired
	}

	if stored.Provider == "" || stored.Intent == "" {
		if err := l.store.ClearFlow(ctx, sessionID); err != nil {
			log.LogWarnWithFields("flowstate", "Failed to clear incomplete flow", map[string]any{
				"error": err.Error(),
			})
		}
		return nil, ErrStateIncomplete
	}

	if err := l.store.ClearFlow(ctx, sessionID); err != nil {
		// The slot must not survive a successful consume; failing to clear
		// would leave a replayable token.
		return nil, fmt.Errorf("clearing consumed flow state: %w", err)
	}

	log.LogDebugWithFields("flowstate", "Flow state consumed", map[string]any{
		"provider": stored.Provider,
		"intent":   stored.Intent,
	})
	return &ConsumeResult{Provider: stored.Provider, Intent: stored.Intent}, nil
}
