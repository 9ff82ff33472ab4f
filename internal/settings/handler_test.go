package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktoodev/onesignal-push-permissions/internal/admin"
	"github.com/ktoodev/onesignal-push-permissions/internal/capability"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
	"github.com/ktoodev/onesignal-push-permissions/internal/view"
)

type handlerFixture struct {
	router   http.Handler
	store    *capability.Store
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	store := capability.NewStore(seedRoles(), shared.CapSendPush, nil)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	menu := admin.NewMenu()
	actions := admin.NewActions()
	h := NewHandler(nil, NewService(store, csrf, nil, nil, nil), templates)
	require.NoError(t, h.Register(menu, actions))

	r := chi.NewRouter()
	r.Route("/admin", admin.NewHandler(menu, actions, store, nil).MountRoutes)
	return &handlerFixture{router: r, store: store, sessions: sessions, csrf: csrf}
}

func (f *handlerFixture) session(t *testing.T) *shared.Session {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	return sess
}

func (f *handlerFixture) do(req *http.Request, sess *shared.Session, p *principal.Principal) *httptest.ResponseRecorder {
	ctx := shared.ContextWithSession(req.Context(), sess)
	if p != nil {
		ctx = principal.WithPrincipal(ctx, p)
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req.WithContext(ctx))
	return res
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/post", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var (
	adminUser  = &principal.Principal{UserID: 1, Roles: []string{"administrator"}}
	editorUser = &principal.Principal{UserID: 2, Roles: []string{"editor"}}
)

func TestPageRendersRoleCheckboxes(t *testing.T) {
	f := newHandlerFixture(t)
	require.NoError(t, f.store.Grant(context.Background(), "editor"))

	res := f.do(httptest.NewRequest(http.MethodGet, "/admin?page="+Slug+"&saved=1", nil), f.session(t), adminUser)
	require.Equal(t, http.StatusOK, res.Code)

	body := res.Body.String()
	assert.Contains(t, body, "Push settings")
	assert.Contains(t, body, `name="onesignal-push-notification-roles[]" value="editor" checked`)
	assert.Contains(t, body, `name="onesignal-push-notification-roles[]" value="author">`)
	assert.Contains(t, body, `name="push_permissions_admin_nonce"`)
	assert.Contains(t, body, `name="action" value="push_notifications_save_permissions"`)
	assert.Contains(t, body, "Save push permissions")
	assert.Contains(t, body, "Push permissions saved.")
}

func TestPageDeniesNonAdmin(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(httptest.NewRequest(http.MethodGet, "/admin?page="+Slug, nil), f.session(t), editorUser)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "You do not have sufficient permissions to access this page.")
	assert.NotContains(t, res.Body.String(), "<form")
}

func TestSaveRedirectsAfterReplace(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.session(t)
	nonce, err := f.csrf.ActionToken(context.Background(), sess, NonceAction)
	require.NoError(t, err)

	res := f.do(postForm(url.Values{
		"action":   {SaveAction},
		NonceField: {nonce},
		RolesField: {"administrator", "editor"},
	}), sess, adminUser)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin?page=push-notification-permissions&saved=1", res.Header().Get("Location"))
	assert.True(t, f.store.HasCapability(context.Background(), "administrator"))
	assert.True(t, f.store.HasCapability(context.Background(), "editor"))
	assert.False(t, f.store.HasCapability(context.Background(), "author"))
}

func TestSaveWithoutRolesFieldRevokesAll(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Grant(ctx, "editor"))
	sess := f.session(t)
	nonce, err := f.csrf.ActionToken(ctx, sess, NonceAction)
	require.NoError(t, err)

	res := f.do(postForm(url.Values{"action": {SaveAction}, NonceField: {nonce}}), sess, adminUser)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.False(t, f.store.HasCapability(ctx, "editor"))
}

func TestSaveRejectsBadToken(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Grant(ctx, "editor"))

	res := f.do(postForm(url.Values{"action": {SaveAction}, NonceField: {"forged"}, RolesField: {"author"}}), f.session(t), adminUser)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "You are not authorized to perform that action")
	assert.True(t, f.store.HasCapability(ctx, "editor"))
	assert.False(t, f.store.HasCapability(ctx, "author"))
}

func TestSaveByEditorIsAccessDenied(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.session(t)
	nonce, err := f.csrf.ActionToken(context.Background(), sess, NonceAction)
	require.NoError(t, err)

	res := f.do(postForm(url.Values{"action": {SaveAction}, NonceField: {nonce}, RolesField: {"editor"}}), sess, editorUser)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "You do not have sufficient permissions to access this page.")
	assert.False(t, f.store.HasCapability(context.Background(), "editor"))
}

func TestDenialIsLocalised(t *testing.T) {
	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/admin?page="+Slug, nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")

	res := f.do(req, f.session(t), editorUser)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Anda tidak memiliki izin yang cukup untuk mengakses halaman ini.")
}

func TestPageRendersInIndonesian(t *testing.T) {
	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/admin?page="+Slug+"&saved=1", nil)
	req.Header.Set("Accept-Language", "id")

	res := f.do(req, f.session(t), adminUser)
	require.Equal(t, http.StatusOK, res.Code)

	body := res.Body.String()
	assert.Contains(t, body, "Pengaturan push")
	assert.Contains(t, body, "Izinkan mengirim notifikasi push")
	assert.Contains(t, body, "Simpan izin push")
	assert.Contains(t, body, "Izin push tersimpan.")
	assert.NotContains(t, body, "Save push permissions")
}
