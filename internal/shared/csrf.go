package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strconv"
	"time"
)

const (
	// CSRFSessionKey is the key used to persist tokens in the session store.
	CSRFSessionKey = "csrf_token"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"

	// actionTokenTick is half the lifetime of an action token. A token stays
	// valid for the tick it was issued in and the one after.
	actionTokenTick = 12 * time.Hour
)

// CSRFManager issues and verifies CSRF tokens bound to a session.
type CSRFManager struct {
	secret []byte
	now    func() time.Time
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), now: time.Now}
}

// EnsureToken retrieves or generates a CSRF token for the session.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("session missing")
	}
	if token := sess.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	token := m.generateToken(sess.ID)
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken compares the supplied token with the session token.
func (m *CSRFManager) VerifyToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// ActionToken issues a token bound to the session, its user and one named
// form action. A token minted for one action never verifies for another.
func (m *CSRFManager) ActionToken(ctx context.Context, sess *Session, action string) (string, error) {
	salt, err := m.EnsureToken(ctx, sess)
	if err != nil {
		return "", err
	}
	return m.actionDigest(sess, salt, action, m.tick()), nil
}

// VerifyActionToken checks a token produced by ActionToken for the same
// session, user and action.
func (m *CSRFManager) VerifyActionToken(ctx context.Context, sess *Session, action, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	salt := sess.Get(CSRFSessionKey)
	if salt == "" {
		return ErrCSRFTokenMissing
	}
	tick := m.tick()
	for _, t := range [...]int64{tick, tick - 1} {
		if hmac.Equal([]byte(m.actionDigest(sess, salt, action, t)), []byte(token)) {
			return nil
		}
	}
	return ErrCSRFTokenMismatch
}

func (m *CSRFManager) tick() int64 {
	return m.now().Unix() / int64(actionTokenTick/time.Second)
}

func (m *CSRFManager) actionDigest(sess *Session, salt, action string, tick int64) string {
	mac := hmac.New(sha256.New, m.secret)
	for _, part := range []string{sess.ID, sess.User(), salt, action, strconv.FormatInt(tick, 10)} {
		_, _ = mac.Write([]byte(part))
		_, _ = mac.Write([]byte{'|'})
	}
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *CSRFManager) generateToken(sessionID string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(sessionID))
	_, _ = mac.Write([]byte{'|'})
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(m.now().UnixNano()))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
