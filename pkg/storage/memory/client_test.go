package memory

import (
	"context"
	"testing"
	"time"

	"dreamsite/internal/gateway"
	"dreamsite/internal/moderation"
	"dreamsite/internal/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@dream.io"
	adminPassword = "correct horse"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, store.AddAdmin(adminEmail, adminPassword))
	return store
}

// go test -v --run TestListNewestFirst
func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	first := store.Insert("first")
	now = now.Add(time.Minute)
	second := store.Insert("second")
	now = now.Add(time.Minute)
	third := store.Insert("third")

	rows := store.List()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestAddAdminDuplicate(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.AddAdmin(" ADMIN@dream.io", "other"), ErrAdminExists)
}

func TestSignInAndSession(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(newTestStore(t), NewSessionStore())
	client := factory("tab-1")

	sess, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = client.SignInWithPassword(ctx, adminEmail, "wrong")
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)
	_, err = client.SignInWithPassword(ctx, "nobody@dream.io", adminPassword)
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)

	sess, err = client.SignInWithPassword(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, sess.User.Email)

	// same tab key sees the stored session, another tab does not
	again, err := factory("tab-1").GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, sess.AccessToken, again.AccessToken)

	other, err := factory("tab-2").GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, client.SignOut(ctx))
	sess, err = client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestExpiredSessionDropped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	sessions := NewSessionStore()
	sessions.now = store.now
	client := NewFactory(store, sessions)("tab")

	_, err := client.SignInWithPassword(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	now = now.Add(DefaultSessionTTL)
	sess, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestExpiredTokensPruned(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.signIn(adminEmail, adminPassword)
	require.NoError(t, err)
	_, err = store.signIn(adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Tokens())

	now = now.Add(DefaultSessionTTL)
	_, err = store.signIn(adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Tokens())
}

// go test -v --run TestStaleSessionsPruned
func TestStaleSessionsPruned(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	sessions := NewSessionStore()
	sessions.now = func() time.Time { return now }

	require.NoError(t, sessions.Save(ctx, "plain", &gateway.Session{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, sessions.Save(ctx, "refreshable", &gateway.Session{
		AccessToken:  "b",
		RefreshToken: "r",
		ExpiresAt:    now.Add(time.Minute),
	}))
	require.NoError(t, sessions.Save(ctx, "forever", &gateway.Session{AccessToken: "c"}))

	now = now.Add(2 * time.Minute)
	require.NoError(t, sessions.Save(ctx, "fresh", &gateway.Session{AccessToken: "d", ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, 3, sessions.Len())

	_, err := sessions.Load(ctx, "plain")
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)
	held, err := sessions.Load(ctx, "refreshable")
	require.NoError(t, err)
	assert.Equal(t, "b", held.AccessToken)

	now = now.Add(gateway.RefreshWindow)
	_, err = sessions.Load(ctx, "refreshable")
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)
}

func TestTableRequiresSession(t *testing.T) {
	ctx := context.Background()
	client := NewFactory(newTestStore(t), NewSessionStore())("anon")

	require.NoError(t, client.InsertTestimonial(ctx, "anonymous is fine"))

	_, err := client.ListTestimonials(ctx)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
	assert.ErrorIs(t, client.DeleteTestimonial(ctx, "x"), gateway.ErrUnauthorized)
}

func TestSubmitThenModerate(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(newTestStore(t), NewSessionStore())

	form := submission.NewForm(factory("visitor"), zap.NewNop())
	defer form.Close()
	require.NoError(t, form.Submit(ctx, "  Great token!  "))

	mod := moderation.NewSession(factory("moderator"), zap.NewNop())
	defer mod.Close()
	require.NoError(t, mod.Mount(ctx))
	require.NoError(t, mod.Login(ctx, adminEmail, adminPassword))

	v := mod.View()
	require.Len(t, v.Testimonials, 1)
	assert.Equal(t, "Great token!", v.Testimonials[0].Content)

	id := v.Testimonials[0].ID
	yes := moderation.ConfirmFunc(func(string) bool { return true })
	require.NoError(t, mod.Delete(ctx, id, yes))
	assert.Equal(t, moderation.ListEmpty, mod.View().Status)

	require.NoError(t, mod.Reload(ctx))
	assert.Empty(t, mod.View().Testimonials)
}
