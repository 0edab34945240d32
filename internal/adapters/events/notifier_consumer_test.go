package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotbid/plotbid/internal/domain/bids"
)

type fakeAcknowledger struct {
	acks     int
	nacks    int
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

type fakeMarker struct {
	err    error
	marked []uuid.UUID
}

func (m *fakeMarker) MarkNotified(ctx context.Context, bidID uuid.UUID) error {
	m.marked = append(m.marked, bidID)
	return m.err
}

func decidedEventBody(t *testing.T, bidID string) []byte {
	t.Helper()
	body, err := json.Marshal(bids.BidDecidedEvent{
		BidID:      bidID,
		PropertyID: uuid.New().String(),
		Action:     string(bids.ActionAccept),
		NewStatus:  string(bids.BidStatusAccepted),
	})
	require.NoError(t, err)
	return body
}

func TestHandleDelivery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newDelivery := func(body []byte) (amqp.Delivery, *fakeAcknowledger) {
		ack := &fakeAcknowledger{}
		return amqp.Delivery{Acknowledger: ack, Body: body}, ack
	}

	t.Run("marks exactly the decided bid and acks", func(t *testing.T) {
		bidID := uuid.New()
		marker := &fakeMarker{}
		consumer := NewNotifierConsumer(nil, marker, logger)

		d, ack := newDelivery(decidedEventBody(t, bidID.String()))
		consumer.handleDelivery(context.Background(), d)

		require.Len(t, marker.marked, 1)
		assert.Equal(t, bidID, marker.marked[0])
		assert.Equal(t, 1, ack.acks)
		assert.Equal(t, 0, ack.nacks)
	})

	t.Run("drops malformed payloads without marking", func(t *testing.T) {
		marker := &fakeMarker{}
		consumer := NewNotifierConsumer(nil, marker, logger)

		d, ack := newDelivery([]byte("not json"))
		consumer.handleDelivery(context.Background(), d)

		assert.Empty(t, marker.marked)
		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeued)
	})

	t.Run("drops events with an invalid bid id", func(t *testing.T) {
		marker := &fakeMarker{}
		consumer := NewNotifierConsumer(nil, marker, logger)

		d, ack := newDelivery(decidedEventBody(t, "not-a-uuid"))
		consumer.handleDelivery(context.Background(), d)

		assert.Empty(t, marker.marked)
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeued)
	})

	t.Run("acks events for bids that no longer exist", func(t *testing.T) {
		marker := &fakeMarker{err: bids.ErrBidNotFound}
		consumer := NewNotifierConsumer(nil, marker, logger)

		d, ack := newDelivery(decidedEventBody(t, uuid.New().String()))
		consumer.handleDelivery(context.Background(), d)

		assert.Equal(t, 1, ack.acks)
		assert.Equal(t, 0, ack.nacks)
	})

	t.Run("requeues on transient marker failure", func(t *testing.T) {
		marker := &fakeMarker{err: errors.New("connection reset")}
		consumer := NewNotifierConsumer(nil, marker, logger)

		d, ack := newDelivery(decidedEventBody(t, uuid.New().String()))
		consumer.handleDelivery(context.Background(), d)

		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.True(t, ack.requeued)
	})
}
