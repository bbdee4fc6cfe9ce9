package entities

import (
	"github.com/google/uuid"
)

// DebtRecord is a derived transfer between a losing and a winning participant of one event.
// Dare records carry the stake text and no creditor or monetary figures.
type DebtRecord struct {
	EventID         int64
	Kind            EventKind
	CreditorID      *uuid.UUID
	DebtorID        uuid.UUID
	Principal       int64
	Amount          int64
	CreditorStake   int64
	GrossReceivable int64
	NetProfit       int64
	Odds            float64
	Stake           string
	Paid            bool
}

// IsObligation reports whether the record is a non-monetary dare obligation
func (d *DebtRecord) IsObligation() bool {
	return d.Kind == EventKindDare
}

// NetDebt is the collapsed balance between two users across many events.
// From owes To the Amount.
type NetDebt struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount int64
}

// CounterpartyBalance is one user's net position against another user.
// A positive Amount means the counterparty owes the user.
type CounterpartyBalance struct {
	CounterpartyID   uuid.UUID
	CounterpartyName string
	Amount           int64
}

// MoneyOwedSummary is a user's aggregated position across all settled events
type MoneyOwedSummary struct {
	UserID      uuid.UUID
	ToReceive   int64
	ToPay       int64
	Balances    []CounterpartyBalance
	Obligations []*DebtRecord
}

// Net returns what the user is owed minus what they owe
func (s *MoneyOwedSummary) Net() int64 {
	return s.ToReceive - s.ToPay
}
