package properties

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property represents a real-estate listing open for bidding
type Property struct {
	ID          uuid.UUID       `db:"id"`
	Location    string          `db:"location"`
	Address     string          `db:"address"`
	Size        string          `db:"size"`
	Bedrooms    int             `db:"bedrooms"`
	Bathrooms   int             `db:"bathrooms"`
	ActualPrice decimal.Decimal `db:"actual_price"`
	OwnerName   *string         `db:"owner_name"`
	DateListed  *time.Time      `db:"date_listed"`
	Description *string         `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ListingDeadline returns the instant after which the listing window has
// elapsed, or false when the property carries no listing date. The listing
// date is treated as start-of-day UTC.
func (p *Property) ListingDeadline(window time.Duration) (time.Time, bool) {
	if p.DateListed == nil {
		return time.Time{}, false
	}
	d := p.DateListed.UTC()
	startOfDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return startOfDay.Add(window), true
}

// ListingExpired reports whether the listing window has elapsed at the given
// instant. Properties without a listing date never expire by time.
func (p *Property) ListingExpired(now time.Time, window time.Duration) bool {
	deadline, ok := p.ListingDeadline(window)
	if !ok {
		return false
	}
	return now.After(deadline)
}
