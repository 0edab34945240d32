//go:build integration

package bids_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbadapter "github.com/plotbid/plotbid/internal/adapters/database"
	"github.com/plotbid/plotbid/internal/domain/bids"
	"github.com/plotbid/plotbid/pkg/testhelpers"
)

type testServices struct {
	auction      *bids.Service
	bidRepo      *dbadapter.PostgresBidRepository
	propertyRepo *dbadapter.PostgresPropertyRepository
}

func setupAuctionService(pool *pgxpool.Pool) *testServices {
	txManager := dbadapter.NewPostgresTransactionManager(pool, 3*time.Second)
	propertyRepo := dbadapter.NewPostgresPropertyRepository(pool)
	bidRepo := dbadapter.NewPostgresBidRepository(pool)
	outboxRepo := dbadapter.NewPostgresOutboxRepository(pool)

	return &testServices{
		auction: bids.NewService(txManager, bidRepo, propertyRepo, outboxRepo, bids.Config{
			BidWindow: 48 * time.Hour,
		}),
		bidRepo:      bidRepo,
		propertyRepo: propertyRepo,
	}
}

func seedProperty(t *testing.T, pool *pgxpool.Pool, actualPrice string, dateListed time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO properties (id, location, address, actual_price, date_listed)
		VALUES ($1, 'Lagos', '12 Marina Road', $2, $3)`,
		id, actualPrice, dateListed)
	require.NoError(t, err)
	return id
}

func seedBid(t *testing.T, pool *pgxpool.Pool, propertyID uuid.UUID, amount string, status bids.BidStatus) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO bids (id, property_id, amount, status)
		VALUES ($1, $2, $3, $4)`,
		id, propertyID, amount, status)
	require.NoError(t, err)
	return id
}

func countOutboxEvents(t *testing.T, pool *pgxpool.Pool, eventType string) int {
	t.Helper()
	var count int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM outbox_events WHERE event_type = $1 AND status = 'pending'`,
		eventType).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestAuctionFlow(t *testing.T) {
	td := testhelpers.NewTestDatabase(t)
	defer td.Close()

	ctx := context.Background()
	svc := setupAuctionService(td.Pool)
	propertyID := seedProperty(t, td.Pool, "100000", time.Now().UTC())

	// Below the floor
	_, err := svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("99999"),
	})
	require.ErrorIs(t, err, bids.ErrBidBelowFloor)

	// Matching the reference price opens the bidding
	first, err := svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("100000"),
	})
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusPending, first.Status)

	// Matching the standing highest is not enough
	_, err = svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("100000"),
	})
	require.ErrorIs(t, err, bids.ErrNotHighestBid)

	// A strictly greater amount wins through
	second, err := svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("150000"),
	})
	require.NoError(t, err)

	report, err := svc.auction.GetPropertyBids(ctx, propertyID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalCount)
	require.NotNil(t, report.Highest)
	assert.Equal(t, second.ID, report.Highest.ID)
	assert.False(t, report.Closed)

	assert.Equal(t, 2, countOutboxEvents(t, td.Pool, bids.EventTypeBidPlaced))

	// The owner is free to accept a bid that is not the highest
	status, err := svc.auction.DecideBid(ctx, first.ID, bids.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusAccepted, status)

	// Every sibling was rejected in the same transaction
	sibling, err := svc.bidRepo.GetBidByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusRejected, sibling.Status)

	// Acceptance closes the auction
	_, err = svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("500000"),
	})
	require.ErrorIs(t, err, bids.ErrAuctionClosed)

	report, err = svc.auction.GetPropertyBids(ctx, propertyID)
	require.NoError(t, err)
	assert.True(t, report.Closed)
	assert.Equal(t, bids.ClosureReasonBidAccepted, report.ClosedReason)

	assert.Equal(t, 1, countOutboxEvents(t, td.Pool, bids.EventTypeBidDecided))

	// Settled bids cannot be flipped directly
	_, err = svc.auction.DecideBid(ctx, second.ID, bids.ActionAccept)
	require.ErrorIs(t, err, bids.ErrInvalidTransition)

	// A cascade-rejected sibling can be reset and then accepted while the
	// first acceptance still stands; the cascade swaps them atomically
	status, err = svc.auction.DecideBid(ctx, second.ID, bids.ActionReset)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusPending, status)

	status, err = svc.auction.DecideBid(ctx, second.ID, bids.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusAccepted, status)

	former, err := svc.bidRepo.GetBidByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusRejected, former.Status)

	// Reset reopens the auction
	status, err = svc.auction.DecideBid(ctx, second.ID, bids.ActionReset)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusPending, status)

	_, err = svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("160000"),
	})
	require.NoError(t, err)
}

func TestExpiredListing(t *testing.T) {
	td := testhelpers.NewTestDatabase(t)
	defer td.Close()

	ctx := context.Background()
	svc := setupAuctionService(td.Pool)
	propertyID := seedProperty(t, td.Pool, "100000", time.Now().UTC().AddDate(0, 0, -10))
	staleBid := seedBid(t, td.Pool, propertyID, "120000", bids.BidStatusPending)

	// New submissions are shut out
	_, err := svc.auction.SubmitBid(ctx, bids.SubmitBidCommand{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString("130000"),
	})
	require.ErrorIs(t, err, bids.ErrAuctionClosed)

	report, err := svc.auction.GetPropertyBids(ctx, propertyID)
	require.NoError(t, err)
	assert.True(t, report.Closed)
	assert.Equal(t, bids.ClosureReasonTimeExpired, report.ClosedReason)

	// The owner can still settle bids that arrived in time
	status, err := svc.auction.DecideBid(ctx, staleBid, bids.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, bids.BidStatusAccepted, status)
}

func TestMarkNotified(t *testing.T) {
	td := testhelpers.NewTestDatabase(t)
	defer td.Close()

	ctx := context.Background()
	svc := setupAuctionService(td.Pool)
	propertyID := seedProperty(t, td.Pool, "100000", time.Now().UTC())
	bidID := seedBid(t, td.Pool, propertyID, "120000", bids.BidStatusPending)

	require.NoError(t, svc.auction.MarkNotified(ctx, bidID))

	bid, err := svc.bidRepo.GetBidByID(ctx, bidID)
	require.NoError(t, err)
	assert.True(t, bid.Notified)
	assert.Equal(t, bids.BidStatusPending, bid.Status)

	// A fresh decision clears the flag again
	_, err = svc.auction.DecideBid(ctx, bidID, bids.ActionReject)
	require.NoError(t, err)

	bid, err = svc.bidRepo.GetBidByID(ctx, bidID)
	require.NoError(t, err)
	assert.False(t, bid.Notified)

	require.ErrorIs(t, svc.auction.MarkNotified(ctx, uuid.New()), bids.ErrBidNotFound)
}

func TestBidderHistory(t *testing.T) {
	td := testhelpers.NewTestDatabase(t)
	defer td.Close()

	ctx := context.Background()
	svc := setupAuctionService(td.Pool)
	firstProperty := seedProperty(t, td.Pool, "100000", time.Now().UTC())
	secondProperty := seedProperty(t, td.Pool, "200000", time.Now().UTC())
	bidderID := uuid.New()

	for _, cmd := range []bids.SubmitBidCommand{
		{PropertyID: firstProperty, BidderID: &bidderID, Amount: decimal.RequireFromString("110000")},
		{PropertyID: secondProperty, BidderID: &bidderID, Amount: decimal.RequireFromString("210000")},
		{PropertyID: secondProperty, Amount: decimal.RequireFromString("220000")}, // anonymous
	} {
		_, err := svc.auction.SubmitBid(ctx, cmd)
		require.NoError(t, err)
	}

	mine, err := svc.auction.GetUserBids(ctx, bidderID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.auction.GetAllBids(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
