package bids

import "fmt"

// Decision errors
var (
	ErrBidNotFound       = fmt.Errorf("bid not found")
	ErrInvalidAction     = fmt.Errorf("invalid action: must be accept, reject or reset")
	ErrInvalidTransition = fmt.Errorf("bid is already settled; reset it before applying a new decision")
)

// Action is an owner decision applied to a bid
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionReset  Action = "reset"
)

// ParseAction validates an action string
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAccept, ActionReject, ActionReset:
		return Action(s), nil
	default:
		return "", ErrInvalidAction
	}
}

// targetStatus maps an action to the status it drives a bid into
func (a Action) targetStatus() BidStatus {
	switch a {
	case ActionAccept:
		return BidStatusAccepted
	case ActionReject:
		return BidStatusRejected
	default:
		return BidStatusPending
	}
}

// Transition computes the status a bid moves to under an action.
//
// Permitted transitions: pending -> accepted, pending -> rejected, and the
// explicit reset of any state back to pending. Accepted and rejected are
// otherwise terminal: accept/reject on a bid settled the other way fails
// with ErrInvalidTransition. Applying an action whose target status the bid
// already holds is an idempotent no-op.
func Transition(current BidStatus, action Action) (next BidStatus, noop bool, err error) {
	target := action.targetStatus()
	if current == target {
		return current, true, nil
	}
	if action != ActionReset && current != BidStatusPending {
		return current, false, ErrInvalidTransition
	}
	return target, false, nil
}
