package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
)

const (
	TopicCart    = "cart_events"
	TopicOrder   = "order_events"
	TopicContact = "contact_events"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish is best-effort: a broker outage is logged and never fails the request.
func publish(ctx context.Context, p EventPublisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
