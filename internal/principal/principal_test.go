package principal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

type failingRepo struct{}

func (failingRepo) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	return nil, errors.New("db down")
}

func newSession(t *testing.T, user string) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	sm := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "s", "secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	if user != "" {
		sess.SetUser(user)
	}
	return sess
}

func TestParseUserID(t *testing.T) {
	cases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: " 7 ", want: 7},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "-3", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseUserID(tc.raw)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrAnonymous, tc.raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestResolveReadsRolesEachCall(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Assign(1, "editor")
	r := NewResolver(repo)

	p, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, p.Roles)

	repo.Assign(1, "editor", "administrator")
	p, err = r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "administrator"}, p.Roles)
}

func TestLoadAttachesSessionPrincipal(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Assign(5, "author")
	mw := Middleware{Resolver: NewResolver(repo)}

	var got *Principal
	h := mw.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), newSession(t, "5")))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.UserID)
	assert.Equal(t, []string{"author"}, got.Roles)
}

func TestLoadAnonymousPassesThrough(t *testing.T) {
	mw := Middleware{Resolver: NewResolver(NewMemoryRepository())}
	called := false
	h := mw.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, FromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), newSession(t, "")))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestLoadRepositoryFailure(t *testing.T) {
	mw := Middleware{Resolver: NewResolver(failingRepo{})}
	h := mw.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), newSession(t, "9")))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestRequireUserRedirects(t *testing.T) {
	h := Middleware{}.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestRequireUserDeniesAnonymousPost(t *testing.T) {
	h := Middleware{}.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/admin/post", nil))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, res.Header().Get("Location"))
	assert.Contains(t, res.Body.String(), "You do not have sufficient permissions to access this page.")

	req := httptest.NewRequest(http.MethodPost, "/admin/post", nil)
	req.Header.Set("Accept-Language", "id")
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Anda tidak memiliki izin yang cukup")
}
