package bids

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plotbid/plotbid/internal/domain/properties"
)

// Validation errors
var (
	ErrAuctionClosed = fmt.Errorf("auction is closed for this property")
	ErrInvalidAmount = fmt.Errorf("bid amount must be a positive value")
	ErrBidBelowFloor = fmt.Errorf("bid amount is below the minimum for this property")
	ErrNotHighestBid = fmt.Errorf("bid amount must exceed the current highest bid")
)

// DefaultFloorMultiplier fixes the minimum-bid floor at the seller's
// reference price: a bid must at least match actual_price. Earlier revisions
// of the product disagreed on this value; 1.0 is the single documented
// constant, overridable through configuration.
var DefaultFloorMultiplier = decimal.NewFromInt(1)

// BidFloor returns the minimum admissible amount for a property
func BidFloor(property *properties.Property, multiplier decimal.Decimal) decimal.Decimal {
	return property.ActualPrice.Mul(multiplier)
}

// ValidateSubmission applies the admission rules for a proposed bid, in
// order, returning the first failure:
//
//  1. the auction must not be closed
//  2. the amount must be positive
//  3. the amount must meet the floor (actual_price * multiplier)
//  4. the amount must strictly exceed the current highest bid, if any
//
// The function is pure so the rules can be tested without persistence.
func ValidateSubmission(
	property *properties.Property,
	closure Closure,
	highest *Bid,
	amount decimal.Decimal,
	floorMultiplier decimal.Decimal,
) error {
	if closure.Closed {
		return ErrAuctionClosed
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.LessThan(BidFloor(property, floorMultiplier)) {
		return ErrBidBelowFloor
	}
	if highest != nil && !amount.GreaterThan(highest.Amount) {
		return ErrNotHighestBid
	}
	return nil
}
