package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopscript/apiserver/internal/mq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type recordingBackend struct {
	sent []published
	err  error
}

func (b *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.sent = append(b.sent, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(context.Context, string, mq.Handler) error { return nil }

func (b *recordingBackend) Close() error { return nil }

func TestPublishWrapsPayload(t *testing.T) {
	backend := &recordingBackend{}
	publisher := NewPublisher(mq.New(backend))
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return at }

	err := publisher.Publish(context.Background(), ChannelOrders, TypeOrderCreated, map[string]int{"orderId": 12})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	sent := backend.sent[0]
	assert.Equal(t, ChannelOrders, sent.channel)
	assert.Equal(t, TypeOrderCreated, sent.attrs["type"])
	assert.Equal(t, "application/json", sent.attrs[mq.AttrContentType])

	env, err := Decode(mq.Message{Data: sent.data, Attributes: sent.attrs})
	require.NoError(t, err)
	assert.Equal(t, TypeOrderCreated, env.Type)
	assert.Equal(t, at, env.OccurredAt)
	assert.NotEmpty(t, env.ID)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 12, payload["orderId"])
}

type keyedPayload struct {
	ID int `json:"id"`
}

func (p keyedPayload) EventKey() string { return fmt.Sprintf("order-%d", p.ID) }

func TestPublishSetsOrderingKey(t *testing.T) {
	backend := &recordingBackend{}
	publisher := NewPublisher(mq.New(backend))

	require.NoError(t, publisher.Publish(context.Background(), ChannelOrders, TypeOrderStatusChanged, keyedPayload{ID: 4}))
	require.NoError(t, publisher.Publish(context.Background(), ChannelOrders, TypeOrderCreated, map[string]int{"orderId": 4}))
	require.Len(t, backend.sent, 2)

	assert.Equal(t, "order-4", backend.sent[0].attrs[mq.AttrOrderingKey])
	_, ok := backend.sent[1].attrs[mq.AttrOrderingKey]
	assert.False(t, ok)
}

func TestPublishWithoutQueueIsNoop(t *testing.T) {
	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Publish(context.Background(), ChannelOrders, TypeOrderCreated, nil))
	assert.NoError(t, NewPublisher(nil).Publish(context.Background(), ChannelOrders, TypeOrderCreated, nil))
}

func TestPublishPropagatesBackendError(t *testing.T) {
	backend := &recordingBackend{err: errors.New("broker down")}
	publisher := NewPublisher(mq.New(backend))

	err := publisher.Publish(context.Background(), ChannelReviews, TypeReviewSubmitted, map[string]int{"reviewId": 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestDecodeFallsBackToAttributeType(t *testing.T) {
	env, err := Decode(mq.Message{
		Data:       []byte(`{"id":"1","payload":{}}`),
		Attributes: map[string]string{"type": TypeReviewModerated},
	})
	require.NoError(t, err)
	assert.Equal(t, TypeReviewModerated, env.Type)

	_, err = Decode(mq.Message{Data: []byte("not json")})
	assert.Error(t, err)
}
