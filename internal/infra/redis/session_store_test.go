package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"points-exchange-service/internal/domain"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	store := NewSessionStore(client, time.Hour)

	token, err := store.Create(ctx, domain.Identity{Username: "mr_x", Role: domain.RoleTeacher})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("session:" + token) {
		t.Fatalf("expected redis key to be set")
	}

	mr.FastForward(30 * time.Minute)
	if err := store.Update(ctx, token, domain.Identity{Username: "mr_x", Role: domain.RoleTeacher, Subject: "math"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ttl := mr.TTL("session:" + token); ttl != 30*time.Minute {
		t.Fatalf("expected update to keep remaining ttl, got %v", ttl)
	}

	got, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject != "math" || got.Role != domain.RoleTeacher {
		t.Fatalf("unexpected identity %+v", got)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("session:" + token) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	store := NewSessionStore(client, time.Hour)

	token, _ := store.Create(ctx, domain.Identity{Username: "ann", Role: domain.RoleStudent})
	mr.FastForward(time.Hour + time.Second)

	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if err := store.Update(ctx, token, domain.Identity{Username: "ann"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected update of expired session to fail, got %v", err)
	}
}
