package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"dreamsite/internal/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	url := os.Getenv("DREAMSITE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DREAMSITE_TEST_REDIS_URL not set")
	}
	rdb, err := NewClient(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewSessionStore(rdb, time.Minute)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}

// go test -v --run TestSessionRoundTrip
func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := uuid.NewString()
	t.Cleanup(func() { _ = store.Remove(ctx, key) })

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)

	sess := &gateway.Session{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		User:        gateway.User{ID: "u1", Email: "admin@dream.io"},
	}
	require.NoError(t, store.Save(ctx, key, sess))

	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, got.AccessToken)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, sess.User, got.User)

	ttl, err := store.rdb.TTL(ctx, gateway.StorageKey(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, store.Remove(ctx, key))
	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)
}

func TestSaveExpiredRemoves(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := uuid.NewString()

	require.NoError(t, store.Save(ctx, key, &gateway.Session{AccessToken: "a"}))
	require.NoError(t, store.Save(ctx, key, &gateway.Session{
		AccessToken: "b",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)
}
