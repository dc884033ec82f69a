package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/inboxly/gmail-assistant/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().UTC().Add(time.Hour),
	}

	created, err := store.Create(ctx, "user@example.com", tok)
	require.NoError(t, err)
	require.NotEmpty(t, created.SessionID)

	got, err := store.Get(ctx, created.SessionID)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", got.UserEmail)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)

	oauthTok := got.OAuthToken()
	assert.Equal(t, "access-1", oauthTok.AccessToken)
	assert.Equal(t, "Bearer", oauthTok.TokenType)
}

func TestGetUnknownSession(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, session.ErrSessionInvalid)
}

func TestGetExpiredSession(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken: "access-old",
		Expiry:      time.Now().UTC().Add(-time.Minute),
	}

	created, err := store.Create(ctx, "user@example.com", tok)
	require.NoError(t, err)

	_, err = store.Get(ctx, created.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionInvalid)
}

func TestUpdateToken(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "user@example.com", &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)

	// Refresh responses may omit the refresh token; the stored one survives.
	err = store.UpdateToken(ctx, created.SessionID, &oauth2.Token{
		AccessToken: "access-2",
		Expiry:      time.Now().UTC().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)

	err = store.UpdateToken(ctx, "no-such-session", &oauth2.Token{AccessToken: "x"})
	assert.ErrorIs(t, err, session.ErrSessionInvalid)
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "user@example.com", &oauth2.Token{
		AccessToken: "access-1",
		Expiry:      time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.SessionID))

	_, err = store.Get(ctx, created.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionInvalid)
}
