package flow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedirectCommandExecutesOnceAfterDelay(t *testing.T) {
	rc := &RedirectCommand{Target: "/dashboard", Delay: 10 * time.Millisecond}

	var navigations atomic.Int32
	var target atomic.Value
	rc.Execute(context.Background(), func(to string) {
		navigations.Add(1)
		target.Store(to)
	})

	assert.Equal(t, int32(1), navigations.Load())
	assert.Equal(t, "/dashboard", target.Load())
}

func TestRedirectCommandCancelledBeforeDelay(t *testing.T) {
	rc := &RedirectCommand{Target: "/dashboard", Delay: 500 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var navigations atomic.Int32
	done := make(chan struct{})
	go func() {
		rc.Execute(ctx, func(string) { navigations.Add(1) })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
	assert.Zero(t, navigations.Load(), "torn-down flow must not navigate")
}
