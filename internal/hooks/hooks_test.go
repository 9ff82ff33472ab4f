package hooks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktoodev/onesignal-push-permissions/internal/capability"
	"github.com/ktoodev/onesignal-push-permissions/internal/gate"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

const (
	adminID  int64 = 1
	editorID int64 = 2
)

func newHookRouter(t *testing.T) (http.Handler, *TokenManager) {
	t.Helper()
	roles := capability.NewMemoryRoleStore()
	roles.AddRole(capability.Role{ID: "administrator", Name: "Administrator"}, shared.CapSendPush)
	roles.AddRole(capability.Role{ID: "editor", Name: "Editor"})
	users := principal.NewMemoryRepository()
	users.Assign(adminID, "administrator")
	users.Assign(editorID, "editor")

	tokens := NewTokenManager("hook-secret", time.Hour)
	g := gate.New(capability.NewStore(roles, shared.CapSendPush, nil), nil, nil)

	r := chi.NewRouter()
	r.Route("/hooks", func(r chi.Router) {
		r.Use(Authenticate(tokens, principal.NewResolver(users), nil))
		NewHandler(g, nil).MountRoutes(r)
	})
	return r, tokens
}

func call(t *testing.T, router http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func issue(t *testing.T, tokens *TokenManager, userID int64) string {
	t.Helper()
	token, _, err := tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Minute)
	token, exp, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Minute)
	good, _, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = tokens.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewTokenManager("other", time.Minute).Parse(good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("s3cret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.Issue(42)
	require.NoError(t, err)
	_, err = tokens.Parse(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "42", Issuer: tokenIssuer}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = tokens.Issue(0)
	assert.ErrorIs(t, err, principal.ErrAnonymous)
}

func TestHooksRequireBearerToken(t *testing.T) {
	router, _ := newHookRouter(t)
	for _, token := range []string{"", "garbage"} {
		res := call(t, router, "/hooks/onesignal_send_notification", token, `{"fields":{}}`)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), `"status":401`)
	}
}

func TestSendNotificationHookSuppressesWithoutCapability(t *testing.T) {
	router, tokens := newHookRouter(t)
	body := `{"fields":{"headings":{"en":"Hello"},"do_send_notification":true},"new_status":"publish","old_status":"draft","post":{"ID":10}}`

	res := call(t, router, "/hooks/onesignal_send_notification", issue(t, tokens, editorID), body)
	require.Equal(t, http.StatusOK, res.Code)
	var out sendNotificationResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, false, out.Fields[gate.SendFlagField])
	assert.Equal(t, map[string]any{"en": "Hello"}, out.Fields["headings"])

	res = call(t, router, "/hooks/onesignal_send_notification", issue(t, tokens, adminID), body)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, true, out.Fields[gate.SendFlagField])
}

func TestSendNotificationHookValidatesBody(t *testing.T) {
	router, tokens := newHookRouter(t)
	token := issue(t, tokens, adminID)

	res := call(t, router, "/hooks/onesignal_send_notification", token, `{"new_status":"publish"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = call(t, router, "/hooks/onesignal_send_notification", token, `not json`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMetaBoxesHookRemovesSendControl(t *testing.T) {
	router, tokens := newHookRouter(t)
	body := `{"screen":"post","controls":[{"id":"onesignal_notif_on_post","title":"OneSignal Push Notifications","context":"side","priority":"high"},{"id":"postexcerpt","context":"normal"}]}`

	res := call(t, router, "/hooks/add_meta_boxes", issue(t, tokens, editorID), body)
	require.Equal(t, http.StatusOK, res.Code)
	var out controlsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, "post", out.Screen)
	require.Len(t, out.Controls, 1)
	assert.Equal(t, "postexcerpt", out.Controls[0].ID)

	res = call(t, router, "/hooks/add_meta_boxes", issue(t, tokens, adminID), body)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Len(t, out.Controls, 2)
}

func TestMetaBoxesHookRequiresControlIDs(t *testing.T) {
	router, tokens := newHookRouter(t)
	res := call(t, router, "/hooks/add_meta_boxes", issue(t, tokens, adminID), `{"screen":"post","controls":[{"title":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestBearerParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")
	assert.Equal(t, "abc", bearer(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearer(req))
}
