package flowstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginGeneratesAndStoresState(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store)

	token, err := lc.Begin(context.Background(), "sess-1", ProviderGoogle, IntentLogin)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	stored, err := store.GetFlow(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, token, stored.State)
	assert.Equal(t, ProviderGoogle, stored.Provider)
	assert.Equal(t, IntentLogin, stored.Intent)
	assert.InDelta(t, time.Now().UnixMilli(), stored.CreatedAt, 2000)
}

func TestBeginOverwritesPreviousFlow(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store)
	ctx := context.Background()

	first, err := lc.Begin(ctx, "sess-1", ProviderGoogle, IntentLogin)
	require.NoError(t, err)

	second, err := lc.Begin(ctx, "sess-1", ProviderGitHub, IntentSignup)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// The first token is silently invalidated by the second flow
	_, err = lc.ValidateAndConsume(ctx, "sess-1", first)
	assert.ErrorIs(t, err, ErrStateMismatch)

	// The second still works: a mismatch must not clear the pending flow
	result, err := lc.ValidateAndConsume(ctx, "sess-1", second)
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, result.Provider)
	assert.Equal(t, IntentSignup, result.Intent)
}

func TestValidateAndConsumeIsSingleUse(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store)
	ctx := context.Background()

	token, err := lc.Begin(ctx, "sess-1", ProviderGoogle, IntentSignup)
	require.NoError(t, err)

	result, err := lc.ValidateAndConsume(ctx, "sess-1", token)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, result.Provider)
	assert.Equal(t, IntentSignup, result.Intent)

	// Replay of the same token must fail
	_, err = lc.ValidateAndConsume(ctx, "sess-1", token)
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestValidateAndConsumeNoPendingFlow(t *testing.T) {
	lc := NewLifecycle(NewMemoryStore())

	_, err := lc.ValidateAndConsume(context.Background(), "sess-1", "anything")
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestValidateAndConsumeExpiry(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{name: "nine_minutes_old_succeeds", age: 9 * time.Minute},
		{name: "eleven_minutes_old_fails", age: 11 * time.Minute, wantErr: ErrStateExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			ctx := context.Background()

			now := time.Now()
			require.NoError(t, store.PutFlow(ctx, "sess-1", FlowState{
				State:     "token",
				Provider:  ProviderGoogle,
				Intent:    IntentLogin,
				CreatedAt: now.Add(-tt.age).UnixMilli(),
			}))

			lc := NewLifecycle(store, WithClock(func() time.Time { return now }))
			result, err := lc.ValidateAndConsume(ctx, "sess-1", "token")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				// Expired state must not be replayable
				_, err := store.GetFlow(ctx, "sess-1")
				assert.ErrorIs(t, err, ErrFlowNotFound)
			} else {
				require.NoError(t, err)
				assert.Equal(t, ProviderGoogle, result.Provider)
			}
		})
	}
}

func TestValidateAndConsumeIncompleteState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.PutFlow(ctx, "sess-1", FlowState{
		State:     "token",
		Provider:  "",
		Intent:    IntentLogin,
		CreatedAt: time.Now().UnixMilli(),
	}))

	lc := NewLifecycle(store)
	_, err := lc.ValidateAndConsume(ctx, "sess-1", "token")
	assert.ErrorIs(t, err, ErrStateIncomplete)

	// Incomplete state is cleared, not left behind
	_, err = store.GetFlow(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("google")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, p)

	p, err = ParseProvider("github")
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, p)

	_, err = ParseProvider("gitlab")
	assert.Error(t, err)
}

func TestParseIntent(t *testing.T) {
	i, err := ParseIntent("")
	require.NoError(t, err)
	assert.Equal(t, IntentLogin, i)

	i, err = ParseIntent("signup")
	require.NoError(t, err)
	assert.Equal(t, IntentSignup, i)

	_, err = ParseIntent("register")
	assert.Error(t, err)
}
