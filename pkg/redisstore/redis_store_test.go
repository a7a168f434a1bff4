package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewWithClient(client, &Config{
		Prefix:   "test",
		LockTTL:  time.Second,
		LockWait: 100 * time.Millisecond,
	}), mr
}

func TestLockIsExclusive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "rep_country_statuses:representing_country_id=1")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "rep_country_statuses:representing_country_id=1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// 不同分组互不影响
	otherUnlock, err := store.Lock(ctx, "rep_country_statuses:representing_country_id=2")
	require.NoError(t, err)
	otherUnlock()

	unlock()
	again, err := store.Lock(ctx, "rep_country_statuses:representing_country_id=1")
	require.NoError(t, err)
	again()
}

func TestLockExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.Lock(ctx, "g")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := store.Lock(ctx, "g")
	require.NoError(t, err)
	unlock()
}

func TestStaleUnlockDoesNotReleaseNewOwner(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	stale, err := store.Lock(ctx, "g")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = store.Lock(ctx, "g")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("test:lock:g"))
}

func TestRevokeToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.RevokeToken(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("test:revoked:old"))
}
