package properties

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of Repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateProperty(ctx context.Context, property *Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockRepository) GetPropertyByID(ctx context.Context, propertyID uuid.UUID) (*Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Property), args.Error(1)
}

func (m *MockRepository) GetPropertyByIDForUpdate(ctx context.Context, tx pgx.Tx, propertyID uuid.UUID) (*Property, error) {
	args := m.Called(ctx, tx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Property), args.Error(1)
}

func (m *MockRepository) UpdateProperty(ctx context.Context, property *Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockRepository) DeleteProperty(ctx context.Context, propertyID uuid.UUID) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

func (m *MockRepository) ListProperties(ctx context.Context, limit, offset int) ([]*Property, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Property), args.Error(1)
}

func TestService_CreateProperty(t *testing.T) {
	owner := "Jane Seller"

	tests := []struct {
		name        string
		cmd         CreatePropertyCommand
		setupMock   func(*MockRepository)
		wantErr     error
		checkResult func(*testing.T, *Property)
	}{
		{
			name: "successfully creates listing",
			cmd: CreatePropertyCommand{
				Location:    "Lagos",
				Address:     "12 Marina Road",
				Size:        "350 sqm",
				Bedrooms:    4,
				Bathrooms:   3,
				ActualPrice: decimal.NewFromInt(250000),
				OwnerName:   &owner,
			},
			setupMock: func(repo *MockRepository) {
				repo.On("CreateProperty", mock.Anything, mock.AnythingOfType("*properties.Property")).Return(nil)
			},
			checkResult: func(t *testing.T, property *Property) {
				assert.NotEqual(t, uuid.Nil, property.ID)
				assert.Equal(t, "12 Marina Road", property.Address)
				assert.True(t, decimal.NewFromInt(250000).Equal(property.ActualPrice))
				assert.Equal(t, &owner, property.OwnerName)
			},
		},
		{
			name: "fails with negative price",
			cmd: CreatePropertyCommand{
				Address:     "12 Marina Road",
				ActualPrice: decimal.NewFromInt(-1),
			},
			setupMock: func(repo *MockRepository) {
				// No repo calls expected
			},
			wantErr: ErrInvalidPrice,
		},
		{
			name: "fails without address",
			cmd: CreatePropertyCommand{
				ActualPrice: decimal.NewFromInt(100000),
			},
			setupMock: func(repo *MockRepository) {
				// No repo calls expected
			},
			wantErr: ErrMissingAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			service := NewService(repo)
			property, err := service.CreateProperty(context.Background(), tt.cmd)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, property)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, property)
				if tt.checkResult != nil {
					tt.checkResult(t, property)
				}
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_UpdateProperty(t *testing.T) {
	propertyID := uuid.New()

	tests := []struct {
		name      string
		cmd       UpdatePropertyCommand
		setupMock func(*MockRepository)
		wantErr   error
	}{
		{
			name: "updates editable fields, price untouched",
			cmd: UpdatePropertyCommand{
				PropertyID: propertyID,
				Location:   "Abuja",
				Address:    "5 Unity Close",
				Bedrooms:   3,
			},
			setupMock: func(repo *MockRepository) {
				repo.On("GetPropertyByID", mock.Anything, propertyID).Return(&Property{
					ID:          propertyID,
					Address:     "Old Address",
					ActualPrice: decimal.NewFromInt(300000),
				}, nil)
				repo.On("UpdateProperty", mock.Anything, mock.MatchedBy(func(p *Property) bool {
					return p.Address == "5 Unity Close" && p.ActualPrice.Equal(decimal.NewFromInt(300000))
				})).Return(nil)
			},
		},
		{
			name: "fails when property not found",
			cmd:  UpdatePropertyCommand{PropertyID: propertyID},
			setupMock: func(repo *MockRepository) {
				repo.On("GetPropertyByID", mock.Anything, propertyID).Return(nil, ErrPropertyNotFound)
			},
			wantErr: ErrPropertyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			service := NewService(repo)
			property, err := service.UpdateProperty(context.Background(), tt.cmd)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, property)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, property)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_DeleteProperty(t *testing.T) {
	propertyID := uuid.New()

	t.Run("deletes existing property", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetPropertyByID", mock.Anything, propertyID).Return(&Property{ID: propertyID}, nil)
		repo.On("DeleteProperty", mock.Anything, propertyID).Return(nil)

		service := NewService(repo)
		assert.NoError(t, service.DeleteProperty(context.Background(), propertyID))
		repo.AssertExpectations(t)
	})

	t.Run("fails when property not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetPropertyByID", mock.Anything, propertyID).Return(nil, ErrPropertyNotFound)

		service := NewService(repo)
		assert.ErrorIs(t, service.DeleteProperty(context.Background(), propertyID), ErrPropertyNotFound)
		repo.AssertExpectations(t)
	})
}

func TestService_GetProperty(t *testing.T) {
	propertyID := uuid.New()

	t.Run("returns the listing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetPropertyByID", mock.Anything, propertyID).Return(&Property{ID: propertyID}, nil)

		service := NewService(repo)
		property, err := service.GetProperty(context.Background(), propertyID)
		assert.NoError(t, err)
		assert.Equal(t, propertyID, property.ID)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetPropertyByID", mock.Anything, propertyID).Return(nil, ErrPropertyNotFound)

		service := NewService(repo)
		_, err := service.GetProperty(context.Background(), propertyID)
		assert.ErrorIs(t, err, ErrPropertyNotFound)
	})

	t.Run("does not mask other repository errors as not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetPropertyByID", mock.Anything, propertyID).Return(nil, errors.New("connection refused"))

		service := NewService(repo)
		_, err := service.GetProperty(context.Background(), propertyID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPropertyNotFound)
	})
}
