package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"points-exchange-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour)

	token, err := store.Create(ctx, domain.Identity{Username: "ann", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "ann" || got.Role != domain.RoleStudent {
		t.Fatalf("unexpected identity %+v", got)
	}

	if err := store.Update(ctx, token, domain.Identity{Username: "ann", Role: domain.RoleStudent, Subject: "math"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := store.Get(ctx, token); got.Subject != "math" {
		t.Fatalf("expected updated subject, got %+v", got)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithClock(time.Hour, func() time.Time { return now })

	token, _ := store.Create(ctx, domain.Identity{Username: "mr_x", Role: domain.RoleTeacher})
	other, _ := store.Create(ctx, domain.Identity{Username: "ann", Role: domain.RoleStudent})

	now = now.Add(59 * time.Minute)
	if _, err := store.Get(ctx, token); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if err := store.Update(ctx, other, domain.Identity{Username: "ann"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected update of expired session to fail, got %v", err)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected sweep to drop 1 session, dropped %d", removed)
	}
}
