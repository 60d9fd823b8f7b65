package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTRL(t *testing.T) (*RedisTRL, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTRL(client), mr
}

func TestRevokeThenCheck(t *testing.T) {
	trl, _ := newTestTRL(t)
	ctx := context.Background()

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, trl.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationExpiresWithToken(t *testing.T) {
	trl, mr := newTestTRL(t)
	ctx := context.Background()

	require.NoError(t, trl.Revoke(ctx, "jti-2", time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token lifetime")
}

func TestEmptyJTIIsNoop(t *testing.T) {
	trl, _ := newTestTRL(t)
	ctx := context.Background()

	require.NoError(t, trl.Revoke(ctx, "", time.Hour))
	revoked, err := trl.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
