package redis

import (
	"context"
	"testing"
	"time"

	"points-exchange-service/internal/app"
)

func TestNotificationBusRelaysToHub(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := app.NewNotificationHub()
	signals, unsubscribe := hub.Subscribe("mr_x")
	defer unsubscribe()

	bus := NewNotificationBus(client, nil)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx, hub, ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("bus stopped early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for subscription")
	}

	bus.Publish(ctx, "mr_x")
	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected signal for mr_x")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("bus did not stop")
	}
}
