package bids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plotbid/plotbid/internal/domain/properties"
)

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestEvaluateClosure(t *testing.T) {
	window := 48 * time.Hour
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		property *properties.Property
		bids     []*Bid
		want     Closure
	}{
		{
			name:     "no listing date and no bids stays open",
			property: &properties.Property{},
			want:     Closure{Closed: false, Reason: ClosureReasonNone},
		},
		{
			name: "listing date within window stays open",
			property: &properties.Property{
				DateListed: datePtr(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)),
			},
			want: Closure{Closed: false, Reason: ClosureReasonNone},
		},
		{
			name: "listing date past window closes by time",
			property: &properties.Property{
				DateListed: datePtr(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)),
			},
			want: Closure{Closed: true, Reason: ClosureReasonTimeExpired},
		},
		{
			name: "deadline instant itself is still open",
			property: &properties.Property{
				// Window ends exactly at now
				DateListed: datePtr(time.Date(2025, 6, 8, 15, 0, 0, 0, time.UTC)),
			},
			want: Closure{Closed: false, Reason: ClosureReasonNone},
		},
		{
			name:     "accepted bid closes the auction",
			property: &properties.Property{},
			bids: []*Bid{
				{Status: BidStatusRejected},
				{Status: BidStatusAccepted},
			},
			want: Closure{Closed: true, Reason: ClosureReasonBidAccepted},
		},
		{
			name: "acceptance wins over time expiry",
			property: &properties.Property{
				DateListed: datePtr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
			bids: []*Bid{
				{Status: BidStatusAccepted},
			},
			want: Closure{Closed: true, Reason: ClosureReasonBidAccepted},
		},
		{
			name:     "pending bids alone do not close",
			property: &properties.Property{},
			bids: []*Bid{
				{Status: BidStatusPending},
				{Status: BidStatusPending},
			},
			want: Closure{Closed: false, Reason: ClosureReasonNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateClosure(tt.property, tt.bids, now, window)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateClosure_DateListedTreatedAsStartOfDay(t *testing.T) {
	window := 48 * time.Hour
	// Listed June 5th at 23:59; window counts from June 5th 00:00
	property := &properties.Property{
		DateListed: datePtr(time.Date(2025, 6, 5, 23, 59, 0, 0, time.UTC)),
	}

	justInside := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	assert.False(t, EvaluateClosure(property, nil, justInside, window).Closed)

	justPast := time.Date(2025, 6, 7, 0, 0, 1, 0, time.UTC)
	got := EvaluateClosure(property, nil, justPast, window)
	assert.True(t, got.Closed)
	assert.Equal(t, ClosureReasonTimeExpired, got.Reason)
}
