package bids

import (
	"time"

	"github.com/plotbid/plotbid/internal/domain/properties"
)

// ClosureReason explains why a property's auction is closed
type ClosureReason string

const (
	ClosureReasonNone        ClosureReason = "none"
	ClosureReasonTimeExpired ClosureReason = "time_expired"
	ClosureReasonBidAccepted ClosureReason = "bid_accepted"
)

// Closure is the derived auction state of a property. It is computed on
// demand and never persisted.
type Closure struct {
	Closed bool
	Reason ClosureReason
}

// EvaluateClosure derives whether a property's auction is closed at the given
// instant. An accepted bid is the authoritative reason and takes precedence
// over time expiry; the listing window is only consulted when no bid has been
// accepted.
func EvaluateClosure(property *properties.Property, propertyBids []*Bid, now time.Time, window time.Duration) Closure {
	for _, b := range propertyBids {
		if b.Status == BidStatusAccepted {
			return Closure{Closed: true, Reason: ClosureReasonBidAccepted}
		}
	}
	if property.ListingExpired(now, window) {
		return Closure{Closed: true, Reason: ClosureReasonTimeExpired}
	}
	return Closure{Closed: false, Reason: ClosureReasonNone}
}
