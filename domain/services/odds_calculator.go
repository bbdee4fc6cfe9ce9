package services

import (
	"math"

	"peerbets/domain/entities"
)

// DefaultOdds is the even-odds multiplier used before money backs a side
const DefaultOdds = 2.0

// OddsCalculator maps pool sizes to pari-mutuel payout multipliers
type OddsCalculator struct{}

// NewOddsCalculator creates a new OddsCalculator
func NewOddsCalculator() *OddsCalculator {
	return &OddsCalculator{}
}

// Odds returns the multiplier for a side: the whole pool divided by the side's pool.
// An empty market or an empty side yields DefaultOdds.
func (c *OddsCalculator) Odds(side entities.Side, poolA, poolB int64) float64 {
	total := poolA + poolB
	pool := poolA
	if side == entities.SideB {
		pool = poolB
	}
	if total == 0 || pool == 0 {
		return DefaultOdds
	}
	return float64(total) / float64(pool)
}

// EventOdds returns the multipliers for both sides of an event
func (c *OddsCalculator) EventOdds(event *entities.Event) (oddsA, oddsB float64) {
	return c.Odds(entities.SideA, event.PoolA, event.PoolB), c.Odds(entities.SideB, event.PoolA, event.PoolB)
}

// PotentialWinnings returns the gross amount a stake would receive at the given odds
func (c *OddsCalculator) PotentialWinnings(amount int64, odds float64) float64 {
	return float64(amount) * odds
}

// RoundOdds rounds a multiplier to two decimals for display
func RoundOdds(odds float64) float64 {
	return math.Round(odds*100) / 100
}
