package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetention is how long an untouched cart survives.
const DefaultRetention = 7 * 24 * time.Hour

// SessionStore persists the cart blob for a session. A missing session
// returns a nil blob and no error.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]byte, error)
	Put(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error
}

// Store applies cart operations on top of a SessionStore. Every write
// re-puts the whole blob, refreshing its retention window.
type Store struct {
	sessions  SessionStore
	retention time.Duration
	log       *slog.Logger
}

func NewStore(sessions SessionStore, retention time.Duration, log *slog.Logger) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{sessions: sessions, retention: retention, log: log}
}

func (s *Store) Get(ctx context.Context, sessionID string) ([]Item, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

func (s *Store) Add(ctx context.Context, sessionID, productID string, quantity int) error {
	return s.update(ctx, sessionID, func(c *Cart) error {
		return c.Add(productID, quantity)
	})
}

func (s *Store) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	return s.update(ctx, sessionID, func(c *Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

func (s *Store) Remove(ctx context.Context, sessionID, productID string) error {
	return s.update(ctx, sessionID, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.save(ctx, sessionID, New(nil))
}

func (s *Store) update(ctx context.Context, sessionID string, fn func(*Cart) error) error {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(ctx, sessionID, c)
}

func (s *Store) load(ctx context.Context, sessionID string) (*Cart, error) {
	blob, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c, err := Decode(blob)
	if err != nil {
		// A corrupted blob is treated as an empty cart.
		s.log.Warn("discarding unreadable cart", "error", err)
		return New(nil), nil
	}
	return c, nil
}

func (s *Store) save(ctx context.Context, sessionID string, c *Cart) error {
	blob, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.sessions.Put(ctx, sessionID, blob, s.retention); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Session binds a Store to one session id.
func (s *Store) Session(sessionID string) *Session {
	return &Session{store: s, id: sessionID}
}

type Session struct {
	store *Store
	id    string
}

func (s *Session) ID() string { return s.id }

func (s *Session) Items(ctx context.Context) ([]Item, error) {
	return s.store.Get(ctx, s.id)
}

func (s *Session) Add(ctx context.Context, productID string, quantity int) error {
	return s.store.Add(ctx, s.id, productID, quantity)
}

func (s *Session) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return s.store.SetQuantity(ctx, s.id, productID, quantity)
}

func (s *Session) Remove(ctx context.Context, productID string) error {
	return s.store.Remove(ctx, s.id, productID)
}

func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.id)
}
