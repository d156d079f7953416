// Package events publishes storefront domain events onto the message queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopscript/apiserver/internal/metrics"
	"github.com/shopscript/apiserver/internal/mq"
)

const (
	ChannelOrders  = "orders"
	ChannelReviews = "reviews"

	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeReviewSubmitted    = "review.submitted"
	TypeReviewModerated    = "review.moderated"

	attrType = "type"
)

// Keyed is implemented by payloads whose events must stay in order, such as
// the status changes of one order.
type Keyed interface {
	EventKey() string
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher serializes events and sends them through an mq.MQ.
type Publisher struct {
	queue *mq.MQ
	now   func() time.Time
}

func NewPublisher(queue *mq.MQ) *Publisher {
	return &Publisher{queue: queue, now: time.Now}
}

// Publish sends one event. A publisher without a queue drops events silently.
func (p *Publisher) Publish(ctx context.Context, channel, eventType string, payload any) error {
	if p == nil || p.queue == nil {
		return nil
	}

	data, err := Encode(eventType, payload, p.now())
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return err
	}

	attrs := map[string]string{
		attrType:           eventType,
		mq.AttrContentType: "application/json",
	}
	if keyed, ok := payload.(Keyed); ok && keyed.EventKey() != "" {
		attrs[mq.AttrOrderingKey] = keyed.EventKey()
	}
	if _, err := p.queue.Publish(ctx, channel, data, attrs); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(eventType, "ok").Inc()
	return nil
}

// Encode builds the JSON envelope for an event.
func Encode(eventType string, payload any, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Payload:    raw,
	})
}

// Decode parses a delivered message back into its envelope.
func Decode(msg mq.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event: %w", err)
	}
	if env.Type == "" {
		env.Type = msg.Attributes[attrType]
	}
	return env, nil
}
