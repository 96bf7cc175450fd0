package supabase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// EventPublisher inserts lifecycle events into the events table. Supabase
// Realtime streams the inserts to clients subscribed to that table, so a
// database write is all an explicit publish needs.
type EventPublisher struct {
	client *Client
	table  string
	logger *zap.Logger
}

func NewEventPublisher(client *Client, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		client: client,
		table:  client.Config.EventsTable,
		logger: logger.Named("events"),
	}
}

// Publish writes one event. The REST client has no context support, so ctx
// is only checked before the request is sent.
func (p *EventPublisher) Publish(ctx context.Context, event models.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}

	_, _, err := p.client.Supabase.From(p.table).Insert(event, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert %s.%s event: %w", event.Entity, event.Event, err)
	}

	p.logger.Debug("Published lifecycle event",
		zap.String("entity", string(event.Entity)),
		zap.String("entity_id", event.EntityID.String()),
		zap.String("event", event.Event))
	return nil
}
