package flow

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceConfirmSuccess(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/device/confirm", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	conf := f.manager.NewDeviceConfirmation("WDJB-MJHT")
	assert.Equal(t, "WDJB-MJHT", conf.UserCode())

	status, userErr := conf.Snapshot()
	assert.Equal(t, DevicePending, status)
	assert.Nil(t, userErr)

	status, userErr = conf.Confirm(context.Background(), "token-1", nil)
	assert.Equal(t, DeviceSuccess, status)
	assert.Nil(t, userErr)
	assert.Equal(t, int32(1), f.calls.Load())

	// Pressing again after success is a no-op
	status, _ = conf.Confirm(context.Background(), "token-1", nil)
	assert.Equal(t, DeviceSuccess, status)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestDeviceConfirmErrorThenRetry(t *testing.T) {
	var fail bool
	var mu sync.Mutex
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		shouldFail := fail
		mu.Unlock()
		if shouldFail {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error_description":"code expired"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mu.Lock()
	fail = true
	mu.Unlock()

	conf := f.manager.NewDeviceConfirmation("WDJB-MJHT")
	status, userErr := conf.Confirm(context.Background(), "", nil)
	assert.Equal(t, DeviceError, status)
	require.NotNil(t, userErr)
	assert.Equal(t, KindBackend, userErr.Kind)
	assert.Equal(t, "code expired", userErr.Message)

	// The snapshot reflects the failure until a retry begins
	status, userErr = conf.Snapshot()
	assert.Equal(t, DeviceError, status)
	require.NotNil(t, userErr)

	mu.Lock()
	fail = false
	mu.Unlock()

	status, userErr = conf.Confirm(context.Background(), "", nil)
	assert.Equal(t, DeviceSuccess, status)
	assert.Nil(t, userErr)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestDeviceConfirmConcurrentPressIgnored(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})

	conf := f.manager.NewDeviceConfirmation("WDJB-MJHT")

	done := make(chan struct{})
	go func() {
		conf.Confirm(context.Background(), "", nil)
		close(done)
	}()

	// Wait for the first press to be in flight, then press again
	require.Eventually(t, func() bool {
		return f.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	status, _ := conf.Confirm(context.Background(), "", nil)
	assert.Equal(t, DevicePending, status, "second press while in flight is ignored")

	close(release)
	<-done

	status, _ = conf.Snapshot()
	assert.Equal(t, DeviceSuccess, status)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestHumanizeProviderError(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		description string
		want        string
	}{
		{"description verbatim", "access_denied", "User said no", "User said no"},
		{"code title-cased", "access_denied", "", "Access Denied"},
		{"single word", "unauthorized", "", "Unauthorized"},
		{"empty falls back", "", "", msgProviderGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, humanizeProviderError(tt.code, tt.description))
		})
	}
}
