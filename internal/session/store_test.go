package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != `{"x":1}` {
		t.Fatalf("Get = %s", got)
	}

	// Stored bytes are copies, not aliases.
	got[0] = 'X'
	again, err := s.Get(ctx, "a")
	if err != nil || string(again) != `{"x":1}` {
		t.Fatalf("stored value mutated through returned slice: %s (%v)", again, err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "a", []byte("payload")))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	// Snapshots expire with the configured TTL.
	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "b", []byte("x")))
	require.NoError(t, s.Delete(ctx, "b"))
	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_EmptyID(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, 0)

	require.Error(t, s.Put(context.Background(), "  ", []byte("x")))
	_, err := s.Get(context.Background(), "")
	require.Error(t, err)
}
