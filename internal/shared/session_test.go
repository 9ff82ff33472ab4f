package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commitAndCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("42")
	sess.Set("k", "v")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "saved"})
	cookie := commitAndCookie(t, sm, sess)
	assert.Equal(t, sess.ID, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "42", loaded.User())
	assert.Equal(t, "v", loaded.Get("k"))

	flash := loaded.PopFlash()
	require.NotNil(t, flash, "flash should survive the redirect")
	assert.Equal(t, "saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm, _ := newTestSessions(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
	assert.Empty(t, sess.User())
}

func TestSessionRenewDropsPreviousKey(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	commitAndCookie(t, sm, sess)
	oldID := sess.ID
	require.True(t, mr.Exists(sessionKeyPrefix+oldID))

	sm.Renew(sess)
	sess.SetUser("1")
	commitAndCookie(t, sm, sess)

	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists(sessionKeyPrefix+oldID))
	assert.True(t, mr.Exists(sessionKeyPrefix+sess.ID))
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	commitAndCookie(t, sm, sess)

	sm.Destroy(sess)
	cookie := commitAndCookie(t, sm, sess)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, mr.Exists(sessionKeyPrefix+sess.ID))
}
