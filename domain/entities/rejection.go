package entities

import (
	"fmt"
)

// RejectionReason identifies a business rule that refused a request
type RejectionReason string

const (
	RejectionEventClosed          RejectionReason = "event_closed"
	RejectionEventAlreadyResolved RejectionReason = "event_already_resolved"
	RejectionDuplicatePlacement   RejectionReason = "duplicate_placement"
	RejectionInvalidAmount        RejectionReason = "invalid_amount"
	RejectionMaxStakeExceeded     RejectionReason = "max_stake_exceeded"
	RejectionInvalidSide          RejectionReason = "invalid_side"
	RejectionInvalidEvent         RejectionReason = "invalid_event"
	RejectionNotAuthorized        RejectionReason = "not_authorized"
	RejectionInvalidProfile       RejectionReason = "invalid_profile"
)

// Rejection is a typed business-rule refusal meant to be shown to the user.
// MaxStake is set only for RejectionMaxStakeExceeded.
type Rejection struct {
	Reason   RejectionReason
	MaxStake int64
	Detail   string
}

// Reject creates a rejection for the given reason
func Reject(reason RejectionReason) *Rejection {
	return &Rejection{Reason: reason}
}

// RejectMaxStake creates a max stake rejection carrying the limit
func RejectMaxStake(limit int64) *Rejection {
	return &Rejection{Reason: RejectionMaxStakeExceeded, MaxStake: limit}
}

// RejectInvalidEvent creates a creation-time rejection with a detail message
func RejectInvalidEvent(detail string) *Rejection {
	return &Rejection{Reason: RejectionInvalidEvent, Detail: detail}
}

// RejectInvalidProfile creates a profile rejection with a detail message
func RejectInvalidProfile(detail string) *Rejection {
	return &Rejection{Reason: RejectionInvalidProfile, Detail: detail}
}

// Message renders the rejection for display
func (r *Rejection) Message() string {
	switch r.Reason {
	case RejectionEventClosed:
		return "this event is closed for new placements"
	case RejectionEventAlreadyResolved:
		return "this event has already been resolved"
	case RejectionDuplicatePlacement:
		return "you already have a placement on this event"
	case RejectionInvalidAmount:
		return "amount must be a positive number with at most two decimals"
	case RejectionMaxStakeExceeded:
		return fmt.Sprintf("maximum stake for this event is %d.%02d", r.MaxStake/100, r.MaxStake%100)
	case RejectionInvalidSide:
		return "side must be A or B"
	case RejectionNotAuthorized:
		return "you are not allowed to do this"
	case RejectionInvalidEvent, RejectionInvalidProfile:
		return r.Detail
	default:
		return string(r.Reason)
	}
}
