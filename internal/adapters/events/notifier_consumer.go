package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/plotbid/plotbid/internal/domain/bids"
)

const notifierQueue = "bid_decision_notifications"

// BidMarker is the slice of the auction service the consumer needs
type BidMarker interface {
	MarkNotified(ctx context.Context, bidID uuid.UUID) error
}

// NotifierConsumer consumes bid decision events and records delivery by
// flagging the decided bid as notified.
type NotifierConsumer struct {
	conn   *amqp.Connection
	marker BidMarker
	logger *slog.Logger
}

// NewNotifierConsumer creates a new notifier consumer
func NewNotifierConsumer(conn *amqp.Connection, marker BidMarker, logger *slog.Logger) *NotifierConsumer {
	return &NotifierConsumer{
		conn:   conn,
		marker: marker,
		logger: logger,
	}
}

// Run starts the consumer loop
func (c *NotifierConsumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if setupErr := c.setupRabbitMQ(ch); setupErr != nil {
		return fmt.Errorf("failed to setup rabbitmq: %w", setupErr)
	}

	msgs, err := ch.Consume(
		notifierQueue, // queue
		"",            // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Waiting for bid decision events...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *NotifierConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event bids.BidDecidedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", "error", err)
		// Unparseable now means unparseable forever; drop it
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to Nack message", "error", nackErr)
		}
		return
	}

	bidID, err := uuid.Parse(event.BidID)
	if err != nil {
		c.logger.Error("Event carries invalid bid id", "bid_id", event.BidID)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to Nack message", "error", nackErr)
		}
		return
	}

	if err := c.marker.MarkNotified(ctx, bidID); err != nil {
		if errors.Is(err, bids.ErrBidNotFound) {
			// The bid (or its property) was deleted after the decision; the
			// notification has nowhere to land.
			c.logger.Warn("Decided bid no longer exists", "bid_id", event.BidID)
			if ackErr := d.Ack(false); ackErr != nil {
				c.logger.Error("Failed to Ack message", "error", ackErr)
			}
			return
		}
		c.logger.Error("Failed to mark bid notified", "error", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to Nack message (requeue)", "error", nackErr)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		c.logger.Error("Failed to Ack message", "error", ackErr)
		return
	}
	c.logger.Info("Marked bid notified", "bid_id", event.BidID, "status", event.NewStatus)
}

func (c *NotifierConsumer) setupRabbitMQ(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		AuctionExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		notifierQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return err
	}

	return ch.QueueBind(
		q.Name,                   // queue name
		bids.EventTypeBidDecided, // routing key
		AuctionExchange,          // exchange
		false,
		nil,
	)
}
