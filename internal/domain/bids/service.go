package bids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/plotbid/plotbid/internal/domain/properties"
	"github.com/plotbid/plotbid/pkg/database"
	"github.com/plotbid/plotbid/pkg/events"
)

// ErrContention is returned when the per-property lock could not be acquired
// within the configured wait, after one internal retry. Callers should treat
// it as transient.
var ErrContention = fmt.Errorf("property is busy, try again")

// lockNotAvailable is the SQLSTATE Postgres raises when lock_timeout expires
const lockNotAvailable = "55P03"

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}

// Config holds the tunable auction rules
type Config struct {
	// BidWindow is how long after its listing date a property accepts bids
	BidWindow time.Duration
	// FloorMultiplier scales actual_price into the minimum admissible bid
	FloorMultiplier decimal.Decimal
}

// Service implements the auction core: bid submission, owner decisions and
// the read-side reports. Both compare-then-act sequences (validate+append and
// accept+cascade) run under a row lock on the property so concurrent callers
// on the same property are serialized while different properties proceed
// independently.
type Service struct {
	txManager    database.TransactionManager
	bidRepo      BidRepository
	propertyRepo properties.Repository
	outboxRepo   OutboxRepository
	cfg          Config

	now func() time.Time
}

// NewService creates a new auction service
func NewService(
	txManager database.TransactionManager,
	bidRepo BidRepository,
	propertyRepo properties.Repository,
	outboxRepo OutboxRepository,
	cfg Config,
) *Service {
	if cfg.FloorMultiplier.IsZero() {
		cfg.FloorMultiplier = DefaultFloorMultiplier
	}
	return &Service{
		txManager:    txManager,
		bidRepo:      bidRepo,
		propertyRepo: propertyRepo,
		outboxRepo:   outboxRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

// SubmitBid validates and appends a bid. A lock timeout is retried once
// before being surfaced as ErrContention.
func (s *Service) SubmitBid(ctx context.Context, cmd SubmitBidCommand) (*Bid, error) {
	bid, err := s.submitBid(ctx, cmd)
	if isLockTimeout(err) {
		bid, err = s.submitBid(ctx, cmd)
		if isLockTimeout(err) {
			return nil, ErrContention
		}
	}
	return bid, err
}

func (s *Service) submitBid(ctx context.Context, cmd SubmitBidCommand) (*Bid, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock the property row. This serializes the compute-highest-then-append
	// sequence against concurrent submissions and decisions on the same
	// property.
	property, err := s.propertyRepo.GetPropertyByIDForUpdate(ctx, tx, cmd.PropertyID)
	if err != nil {
		return nil, err
	}

	propertyBids, err := s.bidRepo.ListBidsByPropertyTx(ctx, tx, cmd.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}

	closure := EvaluateClosure(property, propertyBids, s.now(), s.cfg.BidWindow)
	highest := highestOf(propertyBids)

	if valErr := ValidateSubmission(property, closure, highest, cmd.Amount, s.cfg.FloorMultiplier); valErr != nil {
		return nil, valErr
	}

	bid := &Bid{
		ID:         uuid.New(),
		PropertyID: cmd.PropertyID,
		BidderID:   cmd.BidderID,
		Amount:     cmd.Amount,
		Status:     BidStatusPending,
		Notified:   false,
		CreatedAt:  s.now(),
	}

	if insertErr := s.bidRepo.InsertBid(ctx, tx, bid); insertErr != nil {
		return nil, fmt.Errorf("failed to save bid: %w", insertErr)
	}

	if eventErr := s.saveEvent(ctx, tx, EventTypeBidPlaced, BidPlacedEvent{
		BidID:      bid.ID.String(),
		PropertyID: bid.PropertyID.String(),
		BidderID:   uuidString(bid.BidderID),
		Amount:     bid.Amount.String(),
		CreatedAt:  bid.CreatedAt,
	}); eventErr != nil {
		return nil, eventErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return bid, nil
}

// DecideBid applies an owner decision to a bid. Accepting a bid
// cascade-rejects every sibling on the same property in the same transaction,
// so the at-most-one-accepted invariant holds under concurrency.
func (s *Service) DecideBid(ctx context.Context, bidID uuid.UUID, action Action) (BidStatus, error) {
	status, err := s.decideBid(ctx, bidID, action)
	if isLockTimeout(err) {
		status, err = s.decideBid(ctx, bidID, action)
		if isLockTimeout(err) {
			return "", ErrContention
		}
	}
	return status, err
}

func (s *Service) decideBid(ctx context.Context, bidID uuid.UUID, action Action) (BidStatus, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	bid, err := s.bidRepo.GetBid(ctx, tx, bidID)
	if err != nil {
		return "", err
	}

	// Serialize against submissions and competing decisions, then re-read the
	// bid: its status may have changed while we waited for the lock.
	if _, lockErr := s.propertyRepo.GetPropertyByIDForUpdate(ctx, tx, bid.PropertyID); lockErr != nil {
		return "", lockErr
	}
	bid, err = s.bidRepo.GetBid(ctx, tx, bidID)
	if err != nil {
		return "", err
	}

	next, noop, err := Transition(bid.Status, action)
	if err != nil {
		return "", err
	}
	if noop {
		return bid.Status, nil
	}

	// The partial unique index on accepted bids is non-deferrable: any
	// standing acceptance must be cleared before the new one is written.
	var rejected int64
	if action == ActionAccept {
		rejected, err = s.bidRepo.CascadeReject(ctx, tx, bid.PropertyID, bid.ID)
		if err != nil {
			return "", fmt.Errorf("failed to cascade-reject sibling bids: %w", err)
		}
	}

	// A status change always invalidates any prior notification
	if updateErr := s.bidRepo.UpdateBidStatus(ctx, tx, bid.ID, next, false); updateErr != nil {
		return "", fmt.Errorf("failed to update bid status: %w", updateErr)
	}

	if eventErr := s.saveEvent(ctx, tx, EventTypeBidDecided, BidDecidedEvent{
		BidID:           bid.ID.String(),
		PropertyID:      bid.PropertyID.String(),
		Action:          string(action),
		NewStatus:       string(next),
		CascadeRejected: rejected,
		DecidedAt:       s.now(),
	}); eventErr != nil {
		return "", eventErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return next, nil
}

// MarkNotified records that the bidder has been told about their bid's
// current status. This is the only mutation that does not clear the flag and
// it does not take the property lock.
func (s *Service) MarkNotified(ctx context.Context, bidID uuid.UUID) error {
	return s.bidRepo.MarkNotified(ctx, bidID)
}

// GetPropertyBids returns the auction report for a property
func (s *Service) GetPropertyBids(ctx context.Context, propertyID uuid.UUID) (*PropertyBidsReport, error) {
	property, err := s.propertyRepo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	propertyBids, err := s.bidRepo.ListBidsByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}

	closure := EvaluateClosure(property, propertyBids, s.now(), s.cfg.BidWindow)

	return &PropertyBidsReport{
		Highest:      highestOf(propertyBids),
		TotalCount:   len(propertyBids),
		Bids:         propertyBids,
		Closed:       closure.Closed,
		ClosedReason: closure.Reason,
	}, nil
}

// GetUserBids returns every bid placed by a bidder
func (s *Service) GetUserBids(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error) {
	list, err := s.bidRepo.ListBidsByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}
	return list, nil
}

// GetAllBids returns the full ledger
func (s *Service) GetAllBids(ctx context.Context) ([]*Bid, error) {
	list, err := s.bidRepo.ListAllBids(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}
	return list, nil
}

// GetClosure evaluates the closure state of a property on demand
func (s *Service) GetClosure(ctx context.Context, property *properties.Property) (Closure, error) {
	propertyBids, err := s.bidRepo.ListBidsByProperty(ctx, property.ID)
	if err != nil {
		return Closure{}, fmt.Errorf("failed to load bids: %w", err)
	}
	return EvaluateClosure(property, propertyBids, s.now(), s.cfg.BidWindow), nil
}

func (s *Service) saveEvent(ctx context.Context, tx pgx.Tx, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	event := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    events.OutboxStatusPending,
		CreatedAt: s.now(),
	}
	if saveErr := s.outboxRepo.SaveEvent(ctx, tx, event); saveErr != nil {
		return fmt.Errorf("failed to save outbox event: %w", saveErr)
	}
	return nil
}

// highestOf re-ranks with the documented comparator rather than trusting
// input order.
func highestOf(propertyBids []*Bid) *Bid {
	var best *Bid
	for _, b := range propertyBids {
		if best == nil || RanksAbove(b, best) {
			best = b
		}
	}
	return best
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
