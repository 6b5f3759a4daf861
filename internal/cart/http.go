package cart

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName        = "cart"
	SessionCookieName = "cart_session"
)

// Opener returns the cart session a request belongs to, setting whatever
// cookies the backend needs on w.
type Opener interface {
	Open(w http.ResponseWriter, r *http.Request) *Session
}

// CookieOpener keeps the whole cart in the cart cookie.
type CookieOpener struct {
	Retention time.Duration
	Secure    bool
	Log       *slog.Logger
}

func (o CookieOpener) Open(w http.ResponseWriter, r *http.Request) *Session {
	sessions := &cookieSessionStore{w: w, r: r, secure: o.Secure}
	return NewStore(sessions, o.Retention, o.Log).Session("")
}

// cookieSessionStore ignores the session id: the cookie is the session.
// Blobs are base64url encoded since cookie values cannot carry JSON quotes.
type cookieSessionStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	written bool
	blob    []byte
}

func (s *cookieSessionStore) Get(ctx context.Context, _ string) ([]byte, error) {
	if s.written {
		return s.blob, nil
	}

	c, err := s.r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	blob, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		// Undecodable cookies become an empty cart upstream.
		return []byte(c.Value), nil
	}
	return blob, nil
}

func (s *cookieSessionStore) Put(ctx context.Context, _ string, blob []byte, ttl time.Duration) error {
	s.written = true
	s.blob = blob

	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(blob),
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RedisOpener keys server-side carts by a random id kept in the
// cart_session cookie, issuing one on first use.
type RedisOpener struct {
	Store     *Store
	Retention time.Duration
	Secure    bool
}

func (o RedisOpener) Open(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return o.Store.Session(id.String())
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(o.Retention / time.Second),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return o.Store.Session(id)
}
