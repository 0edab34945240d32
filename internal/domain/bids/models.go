package bids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidStatus represents the lifecycle state of a bid
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

// IsValid checks if the status is a known value
func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	default:
		return false
	}
}

// Bid represents a buyer's offer on a property. BidderID is nil for
// anonymous bids.
type Bid struct {
	ID         uuid.UUID       `db:"id"`
	PropertyID uuid.UUID       `db:"property_id"`
	BidderID   *uuid.UUID      `db:"bidder_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     BidStatus       `db:"status"`
	Notified   bool            `db:"notified"`
	CreatedAt  time.Time       `db:"created_at"`
}

// RanksAbove reports whether bid a outranks bid b in the "current highest"
// ordering: amount descending, then earliest created_at, then lowest ID.
// Identity is an arbitrary but stable final arbiter for bids sharing a
// timestamp.
func RanksAbove(a, b *Bid) bool {
	if !a.Amount.Equal(b.Amount) {
		return a.Amount.GreaterThan(b.Amount)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// SubmitBidCommand represents the command to place a bid
type SubmitBidCommand struct {
	PropertyID uuid.UUID
	BidderID   *uuid.UUID
	Amount     decimal.Decimal
}

// PropertyBidsReport is the read model for a property's auction state
type PropertyBidsReport struct {
	Highest      *Bid
	TotalCount   int
	Bids         []*Bid
	Closed       bool
	ClosedReason ClosureReason
}
