package flowstate

import (
	"context"
	"sync"
	"time"
)

// Ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps flow slots in process memory. Suitable for a single
// instance; in-flight logins do not survive a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	flows       map[string]FlowState
	deviceCodes map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flows:       make(map[string]FlowState),
		deviceCodes: make(map[string]string),
	}
}

// PutFlow stores the pending flow for a session, replacing any previous one
func (s *MemoryStore) PutFlow(_ context.Context, sessionID string, state FlowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[sessionID] = state
	return nil
}

// GetFlow returns the pending flow for a session
func (s *MemoryStore) GetFlow(_ context.Context, sessionID string) (*FlowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.flows[sessionID]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return &state, nil
}

// ClearFlow removes the pending flow for a session
func (s *MemoryStore) ClearFlow(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, sessionID)
	return nil
}

// PutDeviceCode stores a device user code to survive a login redirect
func (s *MemoryStore) PutDeviceCode(_ context.Context, sessionID, userCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceCodes[sessionID] = userCode
	return nil
}

// TakeDeviceCode returns and clears the carried device user code
func (s *MemoryStore) TakeDeviceCode(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.deviceCodes[sessionID]
	delete(s.deviceCodes, sessionID)
	return code, nil
}

// Close implements Store; a memory store has nothing to release
func (s *MemoryStore) Close() error {
	return nil
}

// SweepExpired drops flow slots older than StateTTL and returns how many
// were removed. Expiry is also enforced on read, so the sweep only bounds
// memory growth from abandoned flows.
func (s *MemoryStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, state := range s.flows {
		if state.ExpiredAt(now) {
			delete(s.flows, sessionID)
			removed++
		}
	}
	return removed
}
