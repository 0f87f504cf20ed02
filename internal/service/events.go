package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/happyfeet/storefront/pkg/events"
)

type logger interface {
	Warn(msg string, args ...any)
}

// publish is best-effort: a broker failure is logged and never fails the
// mutation that already committed.
func publish(ctx context.Context, l logger, p events.Publisher, topic, typ string, id uuid.UUID, data map[string]any) {
	if p == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	key := ""
	if id != uuid.Nil {
		key = id.String()
		data["id"] = key
	}
	if err := p.PublishEvent(ctx, topic, key, events.NewEvent(typ, data)); err != nil {
		l.Warn("publish_event_error", "event", typ, "error", err)
	}
}
