package properties

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for property persistence
type Repository interface {
	// CreateProperty creates a new property listing
	CreateProperty(ctx context.Context, property *Property) error

	// GetPropertyByID retrieves a property by its ID
	GetPropertyByID(ctx context.Context, propertyID uuid.UUID) (*Property, error)

	// GetPropertyByIDForUpdate retrieves a property by its ID and locks its row.
	// This serializes concurrent bid submissions and decisions on the same
	// property. Must be called within a transaction.
	GetPropertyByIDForUpdate(ctx context.Context, tx pgx.Tx, propertyID uuid.UUID) (*Property, error)

	// UpdateProperty updates a property's editable fields
	UpdateProperty(ctx context.Context, property *Property) error

	// DeleteProperty removes a property; its bids are cascade-deleted by the
	// storage layer
	DeleteProperty(ctx context.Context, propertyID uuid.UUID) error

	// ListProperties retrieves listings with pagination, newest first
	ListProperties(ctx context.Context, limit, offset int) ([]*Property, error)
}
