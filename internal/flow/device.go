package flow

import (
	"context"
	"net/http"
	"sync"

	"github.com/refactron/auth-front/internal/log"
)

// DeviceStatus is the state of a CLI pairing confirmation.
// Pending → {Success | Error}; Error may retry back through Pending.
type DeviceStatus string

const (
	DevicePending DeviceStatus = "pending"
	DeviceSuccess DeviceStatus = "success"
	DeviceError   DeviceStatus = "error"
)

// DeviceConfirmation tracks one CLI pairing attempt for one browser
// session. The status enum plus the in-flight guard make illegal
// combinations (success while still confirming) unrepresentable from the
// outside: observers only ever see a coherent snapshot.
type DeviceConfirmation struct {
	manager  *Manager
	userCode string

	mu       sync.Mutex
	status   DeviceStatus
	lastErr  *UserError
	inFlight bool
}

// NewDeviceConfirmation creates a pending confirmation for a resolved user
// code.
func (m *Manager) NewDeviceConfirmation(userCode string) *DeviceConfirmation {
	return &DeviceConfirmation{
		manager:  m,
		userCode: userCode,
		status:   DevicePending,
	}
}

// UserCode returns the code being confirmed
func (d *DeviceConfirmation) UserCode() string {
	return d.userCode
}

// Snapshot returns the current status and, for DeviceError, the
// user-displayable failure.
func (d *DeviceConfirmation) Snapshot() (DeviceStatus, *UserError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.lastErr
}

// Confirm approves the pending CLI login. A press while a confirmation is
// already in flight is ignored; a press after Success is a no-op; a press
// after Error retries.
func (d *DeviceConfirmation) Confirm(ctx context.Context, bearerToken string, cookies []*http.Cookie) (DeviceStatus, *UserError) {
	d.mu.Lock()
	if d.inFlight || d.status == DeviceSuccess {
		status, lastErr := d.status, d.lastErr
		d.mu.Unlock()
		return status, lastErr
	}
	d.status = DevicePending
	d.lastErr = nil
	d.inFlight = true
	d.mu.Unlock()

	err := d.manager.backend.ConfirmDevice(ctx, d.userCode, bearerToken, cookies)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = false
	if err != nil {
		d.status = DeviceError
		d.lastErr = classifyDeviceError(err)
		log.LogWarnWithFields("flow", "Device confirmation failed", map[string]any{
			"error": err.Error(),
		})
	} else {
		d.status = DeviceSuccess
		log.Logf("Device confirmation succeeded")
	}
	return d.status, d.lastErr
}
