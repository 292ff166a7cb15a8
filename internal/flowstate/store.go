package flowstate

import (
	"context"
	"errors"
)

// ErrFlowNotFound is returned when a session has no pending flow
var ErrFlowNotFound = errors.New("flow state not found")

// Store holds the per-session OAuth flow slot and the device user-code
// carry slot. Sessions are identified by an opaque browser session ID.
//
// Each session has at most one flow slot; PutFlow overwrites whatever was
// there. The carry slot ferries a CLI device code through a login redirect
// and is consumed on first read.
type Store interface {
	// PutFlow stores the pending flow for a session, replacing any
	// previous one.
	PutFlow(ctx context.Context, sessionID string, state FlowState) error

	// GetFlow returns the pending flow for a session.
	// Returns ErrFlowNotFound if the session has none.
	GetFlow(ctx context.Context, sessionID string) (*FlowState, error)

	// ClearFlow removes the pending flow for a session (idempotent).
	ClearFlow(ctx context.Context, sessionID string) error

	// PutDeviceCode stores a device user code to survive a login redirect.
	PutDeviceCode(ctx context.Context, sessionID, userCode string) error

	// TakeDeviceCode returns and clears the carried device user code.
	// Returns "" if none is stored. The clear happens regardless of what
	// the caller does with the code, so a stale code cannot resurface on
	// a later unrelated visit.
	TakeDeviceCode(ctx context.Context, sessionID string) (string, error)

	// Close releases any resources held by the store.
	Close() error
}
