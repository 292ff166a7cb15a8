package flowstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFlowSlot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetFlow(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	state := FlowState{State: "abc", Provider: ProviderGitHub, Intent: IntentLogin, CreatedAt: 42}
	require.NoError(t, store.PutFlow(ctx, "sess-1", state))

	got, err := store.GetFlow(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	// Slots are per session
	_, err = store.GetFlow(ctx, "sess-2")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	require.NoError(t, store.ClearFlow(ctx, "sess-1"))
	_, err = store.GetFlow(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	// Clearing an empty slot is fine
	assert.NoError(t, store.ClearFlow(ctx, "sess-1"))
}

func TestMemoryStoreDeviceCodeCarry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	code, err := store.TakeDeviceCode(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, code)

	require.NoError(t, store.PutDeviceCode(ctx, "sess-1", "WDJB-MJHT"))

	code, err = store.TakeDeviceCode(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "WDJB-MJHT", code)

	// Take is clear-on-read
	code, err = store.TakeDeviceCode(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.PutFlow(ctx, "fresh", FlowState{
		State: "a", Provider: ProviderGoogle, Intent: IntentLogin,
		CreatedAt: now.Add(-time.Minute).UnixMilli(),
	}))
	require.NoError(t, store.PutFlow(ctx, "stale", FlowState{
		State: "b", Provider: ProviderGoogle, Intent: IntentLogin,
		CreatedAt: now.Add(-time.Hour).UnixMilli(),
	}))

	removed := store.SweepExpired(now)
	assert.Equal(t, 1, removed)

	_, err := store.GetFlow(ctx, "fresh")
	assert.NoError(t, err)
	_, err = store.GetFlow(ctx, "stale")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
