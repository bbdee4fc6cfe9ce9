package entities

import (
	"time"

	"github.com/google/uuid"
)

// WinnerPayout is a winning participant's share of a settled wager
type WinnerPayout struct {
	UserID          uuid.UUID
	Stake           int64
	GrossReceivable int64
	NetProfit       int64
}

// SettlementOutcome is the result of settling one event
type SettlementOutcome struct {
	WinningSide Side
	Odds        float64
	Winners     []WinnerPayout
	Records     []*DebtRecord
	Rejection   *Rejection
}

// TotalDebited sums what losers pay across all records
func (o *SettlementOutcome) TotalDebited() int64 {
	var total int64
	for _, r := range o.Records {
		total += r.Amount
	}
	return total
}

// TotalCredited sums the net profit of every winner
func (o *SettlementOutcome) TotalCredited() int64 {
	var total int64
	for _, w := range o.Winners {
		total += w.NetProfit
	}
	return total
}

// OddsSnapshot is the live odds view of an event, cached between placements
type OddsSnapshot struct {
	EventID    int64     `json:"event_id"`
	PoolA      int64     `json:"pool_a"`
	PoolB      int64     `json:"pool_b"`
	OddsA      float64   `json:"odds_a"`
	OddsB      float64   `json:"odds_b"`
	Resolved   bool      `json:"resolved"`
	ComputedAt time.Time `json:"computed_at"`
}
