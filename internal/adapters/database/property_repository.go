package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plotbid/plotbid/internal/domain/properties"
)

const propertyColumns = `id, location, address, size, bedrooms, bathrooms,
	actual_price, owner_name, date_listed, description, created_at, updated_at`

// PostgresPropertyRepository implements properties.Repository using pgx
type PostgresPropertyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPropertyRepository creates a new PostgreSQL property repository
func NewPostgresPropertyRepository(pool *pgxpool.Pool) *PostgresPropertyRepository {
	return &PostgresPropertyRepository{pool: pool}
}

// CreateProperty creates a new property listing
func (r *PostgresPropertyRepository) CreateProperty(ctx context.Context, property *properties.Property) error {
	query := `
		INSERT INTO properties (id, location, address, size, bedrooms, bathrooms,
			actual_price, owner_name, date_listed, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		property.ID,
		property.Location,
		property.Address,
		property.Size,
		property.Bedrooms,
		property.Bathrooms,
		property.ActualPrice,
		property.OwnerName,
		property.DateListed,
		property.Description,
		property.CreatedAt,
		property.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// GetPropertyByID retrieves a property by its ID
func (r *PostgresPropertyRepository) GetPropertyByID(ctx context.Context, propertyID uuid.UUID) (*properties.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	return r.scanProperty(r.pool.QueryRow(ctx, query, propertyID))
}

// GetPropertyByIDForUpdate retrieves a property and locks its row for the
// duration of the transaction
func (r *PostgresPropertyRepository) GetPropertyByIDForUpdate(ctx context.Context, tx pgx.Tx, propertyID uuid.UUID) (*properties.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 FOR UPDATE`
	return r.scanProperty(tx.QueryRow(ctx, query, propertyID))
}

// UpdateProperty updates a property's editable fields
func (r *PostgresPropertyRepository) UpdateProperty(ctx context.Context, property *properties.Property) error {
	query := `
		UPDATE properties
		SET location = $1, address = $2, size = $3, bedrooms = $4, bathrooms = $5,
			owner_name = $6, description = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.pool.Exec(ctx, query,
		property.Location,
		property.Address,
		property.Size,
		property.Bedrooms,
		property.Bathrooms,
		property.OwnerName,
		property.Description,
		property.UpdatedAt,
		property.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return properties.ErrPropertyNotFound
	}
	return nil
}

// DeleteProperty removes a property; bids reference it with ON DELETE CASCADE
func (r *PostgresPropertyRepository) DeleteProperty(ctx context.Context, propertyID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return properties.ErrPropertyNotFound
	}
	return nil
}

// ListProperties retrieves listings with pagination, newest first
func (r *PostgresPropertyRepository) ListProperties(ctx context.Context, limit, offset int) ([]*properties.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var result []*properties.Property
	for rows.Next() {
		property, scanErr := r.scanProperty(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return result, nil
}

func (r *PostgresPropertyRepository) scanProperty(row pgx.Row) (*properties.Property, error) {
	var property properties.Property
	err := row.Scan(
		&property.ID,
		&property.Location,
		&property.Address,
		&property.Size,
		&property.Bedrooms,
		&property.Bathrooms,
		&property.ActualPrice,
		&property.OwnerName,
		&property.DateListed,
		&property.Description,
		&property.CreatedAt,
		&property.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, properties.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to scan property: %w", err)
	}
	return &property, nil
}
