package services

import (
	"sort"

	"peerbets/domain/entities"

	"github.com/google/uuid"
)

type userPair struct {
	first  uuid.UUID
	second uuid.UUID
}

// newUserPair orders the two ids so (x, y) and (y, x) share a key
func newUserPair(x, y uuid.UUID) userPair {
	if x.String() < y.String() {
		return userPair{first: x, second: y}
	}
	return userPair{first: y, second: x}
}

// DebtAggregator nets DebtRecords from many events into one figure per pair of users
type DebtAggregator struct{}

// NewDebtAggregator creates a new DebtAggregator
func NewDebtAggregator() *DebtAggregator {
	return &DebtAggregator{}
}

// Aggregate collapses monetary records by unordered user pair. Dare obligations and,
// unless includePaid is set, paid records are skipped. Pairs that net to zero are dropped.
func (a *DebtAggregator) Aggregate(records []*entities.DebtRecord, includePaid bool) []entities.NetDebt {
	// positive balance: first owes second
	balances := make(map[userPair]int64)
	for _, r := range records {
		if r.IsObligation() || r.CreditorID == nil || r.Amount == 0 {
			continue
		}
		if r.Paid && !includePaid {
			continue
		}
		if *r.CreditorID == r.DebtorID {
			continue
		}
		pair := newUserPair(r.DebtorID, *r.CreditorID)
		if pair.first == r.DebtorID {
			balances[pair] += r.Amount
		} else {
			balances[pair] -= r.Amount
		}
	}

	debts := make([]entities.NetDebt, 0, len(balances))
	for pair, amount := range balances {
		switch {
		case amount > 0:
			debts = append(debts, entities.NetDebt{From: pair.first, To: pair.second, Amount: amount})
		case amount < 0:
			debts = append(debts, entities.NetDebt{From: pair.second, To: pair.first, Amount: -amount})
		}
	}

	sort.Slice(debts, func(i, j int) bool {
		if debts[i].From != debts[j].From {
			return debts[i].From.String() < debts[j].From.String()
		}
		return debts[i].To.String() < debts[j].To.String()
	})
	return debts
}

// Summarize builds one user's money owed view from the records of every event they
// took part in. Counterparty names are looked up in names when present.
func (a *DebtAggregator) Summarize(userID uuid.UUID, records []*entities.DebtRecord, names map[uuid.UUID]string) *entities.MoneyOwedSummary {
	summary := &entities.MoneyOwedSummary{
		UserID:      userID,
		Balances:    []entities.CounterpartyBalance{},
		Obligations: []*entities.DebtRecord{},
	}

	for _, r := range records {
		if r.IsObligation() && r.DebtorID == userID && !r.Paid {
			summary.Obligations = append(summary.Obligations, r)
		}
	}

	for _, debt := range a.Aggregate(records, false) {
		var balance entities.CounterpartyBalance
		switch userID {
		case debt.To:
			balance = entities.CounterpartyBalance{CounterpartyID: debt.From, Amount: debt.Amount}
			summary.ToReceive += debt.Amount
		case debt.From:
			balance = entities.CounterpartyBalance{CounterpartyID: debt.To, Amount: -debt.Amount}
			summary.ToPay += debt.Amount
		default:
			continue
		}
		balance.CounterpartyName = names[balance.CounterpartyID]
		summary.Balances = append(summary.Balances, balance)
	}

	return summary
}
