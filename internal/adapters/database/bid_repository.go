package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plotbid/plotbid/internal/domain/bids"
)

const bidColumns = `id, property_id, bidder_id, amount, status, notified, created_at`

// bidOrdering is the highest-bid comparator: amount wins, earliest timestamp
// breaks ties, identity is the final arbiter.
const bidOrdering = `ORDER BY amount DESC, created_at ASC, id ASC`

// querier is the subset of pgx shared by pools and transactions
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresBidRepository implements bids.BidRepository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// InsertBid appends a new bid within a transaction
func (r *PostgresBidRepository) InsertBid(ctx context.Context, tx pgx.Tx, bid *bids.Bid) error {
	query := `
		INSERT INTO bids (id, property_id, bidder_id, amount, status, notified, created_at)
		VALUES ($1, $2, $3, $4, $5::bid_status, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.PropertyID,
		bid.BidderID,
		bid.Amount,
		bid.Status,
		bid.Notified,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// GetBid retrieves a bid within a transaction
func (r *PostgresBidRepository) GetBid(ctx context.Context, tx pgx.Tx, bidID uuid.UUID) (*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	return scanBid(tx.QueryRow(ctx, query, bidID))
}

// GetBidByID retrieves a bid outside any transaction
func (r *PostgresBidRepository) GetBidByID(ctx context.Context, bidID uuid.UUID) (*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	return scanBid(r.pool.QueryRow(ctx, query, bidID))
}

// ListBidsByPropertyTx retrieves a property's bids within a transaction
func (r *PostgresBidRepository) ListBidsByPropertyTx(ctx context.Context, tx pgx.Tx, propertyID uuid.UUID) ([]*bids.Bid, error) {
	return r.listBidsByProperty(ctx, tx, propertyID)
}

// ListBidsByProperty retrieves a property's bids
func (r *PostgresBidRepository) ListBidsByProperty(ctx context.Context, propertyID uuid.UUID) ([]*bids.Bid, error) {
	return r.listBidsByProperty(ctx, r.pool, propertyID)
}

func (r *PostgresBidRepository) listBidsByProperty(ctx context.Context, q querier, propertyID uuid.UUID) ([]*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE property_id = $1 ` + bidOrdering
	rows, err := q.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	return collectBids(rows)
}

// ListBidsByBidder retrieves every bid placed by a bidder, newest first
func (r *PostgresBidRepository) ListBidsByBidder(ctx context.Context, bidderID uuid.UUID) ([]*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE bidder_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	return collectBids(rows)
}

// ListAllBids retrieves the full ledger, newest first
func (r *PostgresBidRepository) ListAllBids(ctx context.Context) ([]*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	return collectBids(rows)
}

// UpdateBidStatus sets a bid's status and notified flag within a transaction
func (r *PostgresBidRepository) UpdateBidStatus(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, status bids.BidStatus, notified bool) error {
	query := `UPDATE bids SET status = $1::bid_status, notified = $2 WHERE id = $3`
	result, err := tx.Exec(ctx, query, status, notified, bidID)
	if err != nil {
		return fmt.Errorf("failed to update bid status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return bids.ErrBidNotFound
	}
	return nil
}

// CascadeReject bulk-rejects every other bid on the property and clears their
// notified flag
func (r *PostgresBidRepository) CascadeReject(ctx context.Context, tx pgx.Tx, propertyID, exceptBidID uuid.UUID) (int64, error) {
	query := `
		UPDATE bids
		SET status = 'rejected'::bid_status, notified = FALSE
		WHERE property_id = $1 AND id <> $2
	`
	result, err := tx.Exec(ctx, query, propertyID, exceptBidID)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade-reject bids: %w", err)
	}
	return result.RowsAffected(), nil
}

// MarkNotified flips a bid's notified flag without touching its status
func (r *PostgresBidRepository) MarkNotified(ctx context.Context, bidID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE bids SET notified = TRUE WHERE id = $1`, bidID)
	if err != nil {
		return fmt.Errorf("failed to mark bid notified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return bids.ErrBidNotFound
	}
	return nil
}

func collectBids(rows pgx.Rows) ([]*bids.Bid, error) {
	defer rows.Close()

	var result []*bids.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}
	return result, nil
}

func scanBid(row pgx.Row) (*bids.Bid, error) {
	var bid bids.Bid
	err := row.Scan(
		&bid.ID,
		&bid.PropertyID,
		&bid.BidderID,
		&bid.Amount,
		&bid.Status,
		&bid.Notified,
		&bid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bids.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to scan bid: %w", err)
	}
	return &bid, nil
}
