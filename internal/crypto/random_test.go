package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStateToken(t *testing.T) {
	token, err := GenerateStateToken()
	assert.NoError(t, err)
	assert.Len(t, token, 64)

	decoded, err := hex.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, StateTokenBytes)

	// Each call generates a unique token
	token2, err := GenerateStateToken()
	assert.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestGenerateSessionID(t *testing.T) {
	id, err := GenerateSessionID()
	assert.NoError(t, err)
	assert.Len(t, id, 32)

	id2, err := GenerateSessionID()
	assert.NoError(t, err)
	assert.NotEqual(t, id, id2)
}
