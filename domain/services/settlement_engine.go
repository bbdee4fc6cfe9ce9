package services

import (
	"fmt"
	"sort"

	"peerbets/domain/entities"

	"github.com/shopspring/decimal"
)

// SettlementEngine turns a resolved event and its placements into peer-to-peer debts
type SettlementEngine struct {
	odds *OddsCalculator
}

// NewSettlementEngine creates a new SettlementEngine
func NewSettlementEngine() *SettlementEngine {
	return &SettlementEngine{odds: NewOddsCalculator()}
}

// CheckResolvable reports why an event cannot be resolved with the given side, if at all
func (e *SettlementEngine) CheckResolvable(event *entities.Event, winningSide entities.Side) *entities.Rejection {
	if event.IsResolved() {
		return entities.Reject(entities.RejectionEventAlreadyResolved)
	}
	if !winningSide.IsValid() {
		return entities.Reject(entities.RejectionInvalidSide)
	}
	return nil
}

// Settle computes the debts of an event that is being resolved now. The event must still
// be unresolved and its pools must be the final ones.
func (e *SettlementEngine) Settle(event *entities.Event, placements []*entities.Placement, winningSide entities.Side) (*entities.SettlementOutcome, error) {
	if rejection := e.CheckResolvable(event, winningSide); rejection != nil {
		return &entities.SettlementOutcome{Rejection: rejection}, nil
	}
	return e.compute(event, placements, winningSide)
}

// Ledger recomputes the debts of an already resolved event
func (e *SettlementEngine) Ledger(event *entities.Event, placements []*entities.Placement) (*entities.SettlementOutcome, error) {
	if !event.IsResolved() {
		return &entities.SettlementOutcome{Records: []*entities.DebtRecord{}}, nil
	}
	return e.compute(event, placements, event.WinningSide())
}

func (e *SettlementEngine) compute(event *entities.Event, placements []*entities.Placement, winningSide entities.Side) (*entities.SettlementOutcome, error) {
	outcome := &entities.SettlementOutcome{
		WinningSide: winningSide,
		Records:     []*entities.DebtRecord{},
	}

	var winners, losers []*entities.Placement
	for _, p := range placements {
		if p.Side == winningSide {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}
	sortByPlacement(winners)
	sortByPlacement(losers)

	if event.IsDare() {
		for _, loser := range losers {
			outcome.Records = append(outcome.Records, &entities.DebtRecord{
				EventID:  event.ID,
				Kind:     entities.EventKindDare,
				DebtorID: loser.UserID,
				Stake:    event.Stake,
				Paid:     loser.Paid,
			})
		}
		return outcome, nil
	}

	outcome.Odds = e.odds.Odds(winningSide, event.PoolA, event.PoolB)
	if len(winners) == 0 || len(losers) == 0 {
		return outcome, nil
	}

	winPool := sumAmounts(winners)
	losePool := sumAmounts(losers)
	if winPool != event.Pool(winningSide) || losePool != event.Pool(winningSide.Opposite()) {
		return nil, fmt.Errorf("event %d: winning pool %d/%d, losing pool %d/%d: %w",
			event.ID, winPool, event.Pool(winningSide), losePool, event.Pool(winningSide.Opposite()), entities.ErrCorruptEvent)
	}
	if winPool == 0 {
		return outcome, nil
	}

	weights := make([]int64, len(winners))
	for i, w := range winners {
		weights[i] = w.Amount
	}
	largest := largestShare(winners)

	profits := allocate(losePool, weights, winPool, largest)

	// shares[i][j] is what loser j pays winner i
	shares := make([][]int64, len(winners))
	for i := range shares {
		shares[i] = make([]int64, len(losers))
	}
	for j, loser := range losers {
		column := allocate(loser.Amount, weights, winPool, largest)
		for i := range winners {
			shares[i][j] = column[i]
		}
	}
	rebalanceRows(shares, profits)

	for i, winner := range winners {
		creditor := winner.UserID
		outcome.Winners = append(outcome.Winners, entities.WinnerPayout{
			UserID:          creditor,
			Stake:           winner.Amount,
			GrossReceivable: winner.Amount + profits[i],
			NetProfit:       profits[i],
		})
		for j, loser := range losers {
			outcome.Records = append(outcome.Records, &entities.DebtRecord{
				EventID:         event.ID,
				Kind:            entities.EventKindWager,
				CreditorID:      &creditor,
				DebtorID:        loser.UserID,
				Principal:       loser.Amount,
				Amount:          shares[i][j],
				CreditorStake:   winner.Amount,
				GrossReceivable: winner.Amount + profits[i],
				NetProfit:       profits[i],
				Odds:            outcome.Odds,
				Paid:            loser.Paid,
			})
		}
	}

	return outcome, nil
}

// allocate splits total across weights pro rata, flooring each share and handing the
// leftover cents to the share at index largest
func allocate(total int64, weights []int64, weightSum int64, largest int) []int64 {
	shares := make([]int64, len(weights))
	if weightSum == 0 {
		return shares
	}

	totalDec := decimal.NewFromInt(total)
	sumDec := decimal.NewFromInt(weightSum)
	var assigned int64
	for i, w := range weights {
		q, _ := totalDec.Mul(decimal.NewFromInt(w)).QuoRem(sumDec, 0)
		shares[i] = q.IntPart()
		assigned += shares[i]
	}
	shares[largest] += total - assigned
	return shares
}

// rebalanceRows moves cents between winners inside a loser's column until every
// winner's row sums to their profit. Column sums never change.
func rebalanceRows(shares [][]int64, profits []int64) {
	rowSums := make([]int64, len(shares))
	for i, row := range shares {
		for _, v := range row {
			rowSums[i] += v
		}
	}

	for i := range shares {
		for rowSums[i] > profits[i] {
			k := -1
			for idx := range shares {
				if rowSums[idx] < profits[idx] {
					k = idx
					break
				}
			}
			if k < 0 {
				return
			}
			for j := range shares[i] {
				if shares[i][j] == 0 {
					continue
				}
				move := min(rowSums[i]-profits[i], profits[k]-rowSums[k], shares[i][j])
				shares[i][j] -= move
				shares[k][j] += move
				rowSums[i] -= move
				rowSums[k] += move
				break
			}
		}
	}
}

// largestShare returns the index of the biggest stake, earliest placement first on ties
func largestShare(placements []*entities.Placement) int {
	best := 0
	for i, p := range placements {
		b := placements[best]
		if p.Amount > b.Amount || (p.Amount == b.Amount && p.PlacedBefore(b)) {
			best = i
		}
	}
	return best
}

func sortByPlacement(placements []*entities.Placement) {
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].PlacedBefore(placements[j])
	})
}

func sumAmounts(placements []*entities.Placement) int64 {
	var total int64
	for _, p := range placements {
		total += p.Amount
	}
	return total
}
