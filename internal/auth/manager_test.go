package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) *Manager {
	return NewManager(NewMemoryStore(), bcrypt.MinCost, zaptest.NewLogger(t))
}

func TestManager_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	id, err := m.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	acct, err := m.Authenticate(ctx, "ALICE", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, id, acct.ID)
	assert.NotEqual(t, []byte("hunter22"), acct.PasswordHash)

	_, err = m.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Authenticate(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManager_RegisterRejects(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Register(ctx, "al", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = m.Register(ctx, "alice", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = m.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)
	_, err = m.Register(ctx, "Alice", "another1")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestNewManager_CostFallback(t *testing.T) {
	m := NewManager(NewMemoryStore(), 0, zaptest.NewLogger(t))
	assert.Equal(t, bcrypt.DefaultCost, m.cost)
}
