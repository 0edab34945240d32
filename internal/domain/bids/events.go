package bids

import "time"

// Event types published on the auction.events exchange
const (
	EventTypeBidPlaced  = "bid.placed"
	EventTypeBidDecided = "bid.decided"
)

// BidPlacedEvent is the payload emitted when a bid enters the ledger
type BidPlacedEvent struct {
	BidID      string    `json:"bid_id"`
	PropertyID string    `json:"property_id"`
	BidderID   *string   `json:"bidder_id,omitempty"`
	Amount     string    `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// BidDecidedEvent is the payload emitted when an owner decision settles a bid
type BidDecidedEvent struct {
	BidID           string    `json:"bid_id"`
	PropertyID      string    `json:"property_id"`
	Action          string    `json:"action"`
	NewStatus       string    `json:"new_status"`
	CascadeRejected int64     `json:"cascade_rejected"`
	DecidedAt       time.Time `json:"decided_at"`
}
