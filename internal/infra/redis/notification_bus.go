package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"points-exchange-service/internal/app"
)

const notificationChannelPrefix = "notifications:"

// NotificationBus carries "list changed" signals between instances over Redis pub/sub.
type NotificationBus struct {
	client *redis.Client
	log    *zap.Logger
}

var _ app.NotificationPublisher = (*NotificationBus)(nil)

func NewNotificationBus(client *redis.Client, log *zap.Logger) *NotificationBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationBus{client: client, log: log}
}

// Publish announces that recipient's notifications changed. Failures are logged
// and dropped; subscribers still catch up on their periodic refresh.
func (b *NotificationBus) Publish(ctx context.Context, recipient string) {
	if err := b.client.Publish(ctx, notificationChannelPrefix+recipient, "changed").Err(); err != nil {
		b.log.Warn("publish notification signal", zap.String("recipient", recipient), zap.Error(err))
	}
}

// Run relays every signal seen on Redis to local until ctx is cancelled.
// ready, when non-nil, is closed once the subscription is confirmed.
func (b *NotificationBus) Run(ctx context.Context, local app.NotificationPublisher, ready chan<- struct{}) error {
	sub := b.client.PSubscribe(ctx, notificationChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			recipient := strings.TrimPrefix(msg.Channel, notificationChannelPrefix)
			local.Publish(ctx, recipient)
		}
	}
}
