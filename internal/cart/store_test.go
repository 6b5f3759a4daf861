package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

type memorySessions struct {
	blobs map[string][]byte
	ttls  map[string]time.Duration
	puts  int
	err   error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{blobs: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memorySessions) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.blobs[sessionID], nil
}

func (m *memorySessions) Put(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.puts++
	m.blobs[sessionID] = blob
	m.ttls[sessionID] = ttl
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreOperations(t *testing.T) {
	ctx := context.Background()
	sessions := newMemorySessions()
	store := NewStore(sessions, 0, testLogger())

	if err := store.Add(ctx, "s1", "p1", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, "s1", "p2", 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, "s2", "p9", 1); err != nil {
		t.Fatalf("Add other session: %v", err)
	}
	if err := store.SetQuantity(ctx, "s1", "p1", 4); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if err := store.Remove(ctx, "s1", "p2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	items, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []Item{{ProductID: "p1", Quantity: 4}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Get() = %v, want %v", items, want)
	}

	if ttl := sessions.ttls["s1"]; ttl != DefaultRetention {
		t.Errorf("Expected retention %s, got %s", DefaultRetention, ttl)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	items, _ = store.Get(ctx, "s1")
	if len(items) != 0 {
		t.Errorf("Expected empty cart after Clear, got %v", items)
	}

	other, _ := store.Get(ctx, "s2")
	if len(other) != 1 {
		t.Errorf("Clear should not touch other sessions, got %v", other)
	}
}

func TestStoreFailedMutationDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	sessions := newMemorySessions()
	store := NewStore(sessions, time.Hour, testLogger())

	if err := store.SetQuantity(ctx, "s1", "p1", 2); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("Expected ErrNotInCart, got %v", err)
	}
	if err := store.Add(ctx, "s1", "p1", -3); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("Expected ErrInvalidQuantity, got %v", err)
	}
	if sessions.puts != 0 {
		t.Errorf("Expected no writes, got %d", sessions.puts)
	}
}

func TestStoreUnreadableBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	sessions := newMemorySessions()
	sessions.blobs["s1"] = []byte("{broken")
	store := NewStore(sessions, time.Hour, testLogger())

	items, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty cart, got %v", items)
	}

	if err := store.Add(ctx, "s1", "p1", 1); err != nil {
		t.Fatalf("Add after corruption: %v", err)
	}
	if string(sessions.blobs["s1"]) != `[{"id":"p1","quantity":1}]` {
		t.Errorf("Unexpected blob %s", sessions.blobs["s1"])
	}
}

func TestStoreSessionError(t *testing.T) {
	sessions := newMemorySessions()
	sessions.err = errors.New("redis down")
	store := NewStore(sessions, time.Hour, testLogger())

	if _, err := store.Get(context.Background(), "s1"); err == nil {
		t.Error("Expected error when session store fails")
	}
}
