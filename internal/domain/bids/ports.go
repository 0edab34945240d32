package bids

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/plotbid/plotbid/pkg/events"
)

// BidRepository defines the interface for bid persistence.
//
// Listing methods order bids by amount descending, then created_at ascending,
// then ID ascending, so the first row is always the current highest bid.
type BidRepository interface {
	// InsertBid appends a new bid within a transaction; prior bids are never
	// touched by an append
	InsertBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// GetBid retrieves a bid within a transaction
	GetBid(ctx context.Context, tx pgx.Tx, bidID uuid.UUID) (*Bid, error)

	// GetBidByID retrieves a bid outside any transaction
	GetBidByID(ctx context.Context, bidID uuid.UUID) (*Bid, error)

	// ListBidsByPropertyTx retrieves a property's bids within a transaction
	ListBidsByPropertyTx(ctx context.Context, tx pgx.Tx, propertyID uuid.UUID) ([]*Bid, error)

	// ListBidsByProperty retrieves a property's bids
	ListBidsByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Bid, error)

	// ListBidsByBidder retrieves every bid placed by a bidder
	ListBidsByBidder(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error)

	// ListAllBids retrieves every bid in the ledger
	ListAllBids(ctx context.Context) ([]*Bid, error)

	// UpdateBidStatus sets a bid's status and notified flag within a
	// transaction
	UpdateBidStatus(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, status BidStatus, notified bool) error

	// CascadeReject marks every bid of the property except one as rejected
	// and un-notified, returning the number of bids affected. Must run in the
	// same transaction as the acceptance it accompanies.
	CascadeReject(ctx context.Context, tx pgx.Tx, propertyID, exceptBidID uuid.UUID) (int64, error)

	// MarkNotified flips a bid's notified flag without touching its status.
	// Runs outside the property lock since it only concerns its own row.
	MarkNotified(ctx context.Context, bidID uuid.UUID) error
}

// OutboxRepository defines the interface for outbox event persistence
type OutboxRepository interface {
	// SaveEvent saves an outbox event within a transaction
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
