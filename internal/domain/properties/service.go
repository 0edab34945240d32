package properties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrPropertyNotFound = fmt.Errorf("property not found")
	ErrInvalidPrice     = fmt.Errorf("actual price must not be negative")
	ErrMissingAddress   = fmt.Errorf("address is required")
)

// CreatePropertyCommand represents the command to create a new listing
type CreatePropertyCommand struct {
	Location    string
	Address     string
	Size        string
	Bedrooms    int
	Bathrooms   int
	ActualPrice decimal.Decimal
	OwnerName   *string
	DateListed  *time.Time
	Description *string
}

// UpdatePropertyCommand represents the command to update a listing.
// Auction-relevant fields (actual price, listing date) are intentionally
// absent: they are immutable once bidding may have started.
type UpdatePropertyCommand struct {
	PropertyID  uuid.UUID
	Location    string
	Address     string
	Size        string
	Bedrooms    int
	Bathrooms   int
	OwnerName   *string
	Description *string
}

// ListPropertiesQuery represents pagination parameters for listing properties
type ListPropertiesQuery struct {
	Limit  int
	Offset int
}

// Service implements the property registry
type Service struct {
	repo Repository
}

// NewService creates a new property service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProperty creates a new listing
func (s *Service) CreateProperty(ctx context.Context, cmd CreatePropertyCommand) (*Property, error) {
	if cmd.ActualPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if cmd.Address == "" {
		return nil, ErrMissingAddress
	}

	property := &Property{
		ID:          uuid.New(),
		Location:    cmd.Location,
		Address:     cmd.Address,
		Size:        cmd.Size,
		Bedrooms:    cmd.Bedrooms,
		Bathrooms:   cmd.Bathrooms,
		ActualPrice: cmd.ActualPrice,
		OwnerName:   cmd.OwnerName,
		DateListed:  cmd.DateListed,
		Description: cmd.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.CreateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	return property, nil
}

// GetProperty retrieves a listing by ID
func (s *Service) GetProperty(ctx context.Context, propertyID uuid.UUID) (*Property, error) {
	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return property, nil
}

// ListProperties retrieves listings with pagination
func (s *Service) ListProperties(ctx context.Context, query ListPropertiesQuery) ([]*Property, error) {
	list, err := s.repo.ListProperties(ctx, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return list, nil
}

// UpdateProperty updates a listing's editable fields
func (s *Service) UpdateProperty(ctx context.Context, cmd UpdatePropertyCommand) (*Property, error) {
	property, err := s.repo.GetPropertyByID(ctx, cmd.PropertyID)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	property.Location = cmd.Location
	property.Address = cmd.Address
	property.Size = cmd.Size
	property.Bedrooms = cmd.Bedrooms
	property.Bathrooms = cmd.Bathrooms
	property.OwnerName = cmd.OwnerName
	property.Description = cmd.Description
	property.UpdatedAt = time.Now()

	if err := s.repo.UpdateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	return property, nil
}

// DeleteProperty removes a listing and, through the storage layer's cascade,
// every bid placed on it.
func (s *Service) DeleteProperty(ctx context.Context, propertyID uuid.UUID) error {
	if _, err := s.repo.GetPropertyByID(ctx, propertyID); err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return err
		}
		return fmt.Errorf("failed to load property: %w", err)
	}
	if err := s.repo.DeleteProperty(ctx, propertyID); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return nil
}
