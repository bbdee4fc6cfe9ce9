package api

import (
	"encoding/json"
	"strings"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/services"
	"peerbets/domain/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createEventRequest struct {
	Kind     string           `json:"kind"`
	Name     string           `json:"name"`
	SideA    string           `json:"side_a"`
	SideB    string           `json:"side_b"`
	ClosesAt time.Time        `json:"closes_at"`
	Currency string           `json:"currency"`
	Stake    string           `json:"stake"`
	MaxStake *decimal.Decimal `json:"max_stake"`
}

type placementRequest struct {
	Side   string          `json:"side"`
	Amount json.RawMessage `json:"amount"`
}

// parseAmount accepts a JSON number or a numeric string. A missing amount is zero.
func (r placementRequest) parseAmount() (decimal.Decimal, bool) {
	raw := strings.TrimSpace(string(r.Amount))
	if raw == "" || raw == "null" {
		return decimal.Zero, true
	}
	raw = strings.Trim(raw, `"`)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

type resolveRequest struct {
	WinningSide string `json:"winning_side"`
}

type profileRequest struct {
	Username string `json:"username"`
}

type eventResponse struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Name        string     `json:"name"`
	SideA       string     `json:"side_a"`
	SideB       string     `json:"side_b"`
	PoolA       string     `json:"pool_a"`
	PoolB       string     `json:"pool_b"`
	TotalPool   string     `json:"total_pool"`
	OddsA       float64    `json:"odds_a"`
	OddsB       float64    `json:"odds_b"`
	MaxStake    *string    `json:"max_stake,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	Stake       string     `json:"stake,omitempty"`
	ClosesAt    time.Time  `json:"closes_at"`
	Closed      bool       `json:"closed"`
	WinningSide *string    `json:"winning_side,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	Hidden      bool       `json:"hidden"`
	CreatedAt   time.Time  `json:"created_at"`
}

type placementResponse struct {
	ID       int64     `json:"id"`
	EventID  int64     `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	Side     string    `json:"side"`
	Amount   string    `json:"amount"`
	Paid     bool      `json:"paid"`
	PlacedAt time.Time `json:"placed_at"`
}

type placementAcceptedResponse struct {
	Placement         placementResponse `json:"placement"`
	Event             eventResponse     `json:"event"`
	PotentialWinnings *string           `json:"potential_winnings,omitempty"`
}

type oddsResponse struct {
	EventID    int64     `json:"event_id"`
	PoolA      string    `json:"pool_a"`
	PoolB      string    `json:"pool_b"`
	OddsA      float64   `json:"odds_a"`
	OddsB      float64   `json:"odds_b"`
	Resolved   bool      `json:"resolved"`
	ComputedAt time.Time `json:"computed_at"`
}

type winnerResponse struct {
	UserID          uuid.UUID `json:"user_id"`
	Stake           string    `json:"stake"`
	GrossReceivable string    `json:"gross_receivable"`
	NetProfit       string    `json:"net_profit"`
}

type debtRecordResponse struct {
	EventID         int64      `json:"event_id"`
	Kind            string     `json:"kind"`
	CreditorID      *uuid.UUID `json:"creditor_id"`
	DebtorID        uuid.UUID  `json:"debtor_id"`
	Principal       string     `json:"principal"`
	Amount          string     `json:"amount"`
	CreditorStake   string     `json:"creditor_stake"`
	GrossReceivable string     `json:"gross_receivable"`
	NetProfit       string     `json:"net_profit"`
	Odds            float64    `json:"odds"`
	Stake           string     `json:"stake,omitempty"`
	Paid            bool       `json:"paid"`
}

type settlementResponse struct {
	EventID       int64                `json:"event_id"`
	WinningSide   string               `json:"winning_side,omitempty"`
	Odds          float64              `json:"odds"`
	TotalDebited  string               `json:"total_debited"`
	TotalCredited string               `json:"total_credited"`
	Winners       []winnerResponse     `json:"winners"`
	Records       []debtRecordResponse `json:"records"`
}

type resolutionResponse struct {
	Event      eventResponse      `json:"event"`
	Settlement settlementResponse `json:"settlement"`
}

type userBetResponse struct {
	Placement placementResponse `json:"placement"`
	Event     eventResponse     `json:"event"`
	Status    string            `json:"status"`
}

type balanceResponse struct {
	CounterpartyID   uuid.UUID `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name,omitempty"`
	Amount           string    `json:"amount"`
}

type moneyOwedResponse struct {
	UserID      uuid.UUID            `json:"user_id"`
	ToReceive   string               `json:"to_receive"`
	ToPay       string               `json:"to_pay"`
	Net         string               `json:"net"`
	Balances    []balanceResponse    `json:"balances"`
	Obligations []debtRecordResponse `json:"obligations"`
}

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updated_at"`
}

type rejectionResponse struct {
	Error    string  `json:"error"`
	Reason   string  `json:"reason"`
	Message  string  `json:"message"`
	MaxStake *string `json:"max_stake,omitempty"`
}

type conflictResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func money(cents int64) string {
	return utils.CentsToDecimal(cents).StringFixed(2)
}

func toEventResponse(event *entities.Event, odds *services.OddsCalculator, now time.Time) eventResponse {
	oddsA, oddsB := odds.EventOdds(event)
	resp := eventResponse{
		ID:        event.ID,
		Kind:      string(event.Kind),
		Name:      event.Name,
		SideA:     event.SideA,
		SideB:     event.SideB,
		PoolA:     money(event.PoolA),
		PoolB:     money(event.PoolB),
		TotalPool: money(event.TotalPool()),
		OddsA:     services.RoundOdds(oddsA),
		OddsB:     services.RoundOdds(oddsB),
		Currency:  event.Currency,
		Stake:     event.Stake,
		ClosesAt:  event.ClosesAt,
		Closed:    event.IsClosedAt(now),
		CreatedBy: event.CreatedBy,
		Hidden:    event.Hidden,
		CreatedAt: event.CreatedAt,
	}
	if event.MaxStake != nil {
		limit := money(*event.MaxStake)
		resp.MaxStake = &limit
	}
	if event.Resolution != nil {
		side := string(event.Resolution.WinningSide)
		resolvedAt := event.Resolution.ResolvedAt
		resp.WinningSide = &side
		resp.ResolvedAt = &resolvedAt
	}
	return resp
}

func toPlacementResponse(p *entities.Placement) placementResponse {
	return placementResponse{
		ID:       p.ID,
		EventID:  p.EventID,
		UserID:   p.UserID,
		Side:     string(p.Side),
		Amount:   money(p.Amount),
		Paid:     p.Paid,
		PlacedAt: p.PlacedAt,
	}
}

func toOddsResponse(s *entities.OddsSnapshot) oddsResponse {
	return oddsResponse{
		EventID:    s.EventID,
		PoolA:      money(s.PoolA),
		PoolB:      money(s.PoolB),
		OddsA:      services.RoundOdds(s.OddsA),
		OddsB:      services.RoundOdds(s.OddsB),
		Resolved:   s.Resolved,
		ComputedAt: s.ComputedAt,
	}
}

func toDebtRecordResponses(records []*entities.DebtRecord) []debtRecordResponse {
	out := make([]debtRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, debtRecordResponse{
			EventID:         r.EventID,
			Kind:            string(r.Kind),
			CreditorID:      r.CreditorID,
			DebtorID:        r.DebtorID,
			Principal:       money(r.Principal),
			Amount:          money(r.Amount),
			CreditorStake:   money(r.CreditorStake),
			GrossReceivable: money(r.GrossReceivable),
			NetProfit:       money(r.NetProfit),
			Odds:            services.RoundOdds(r.Odds),
			Stake:           r.Stake,
			Paid:            r.Paid,
		})
	}
	return out
}

func toSettlementResponse(eventID int64, s *entities.SettlementOutcome) settlementResponse {
	winners := make([]winnerResponse, 0, len(s.Winners))
	for _, w := range s.Winners {
		winners = append(winners, winnerResponse{
			UserID:          w.UserID,
			Stake:           money(w.Stake),
			GrossReceivable: money(w.GrossReceivable),
			NetProfit:       money(w.NetProfit),
		})
	}
	return settlementResponse{
		EventID:       eventID,
		WinningSide:   string(s.WinningSide),
		Odds:          services.RoundOdds(s.Odds),
		TotalDebited:  money(s.TotalDebited()),
		TotalCredited: money(s.TotalCredited()),
		Winners:       winners,
		Records:       toDebtRecordResponses(s.Records),
	}
}

func toMoneyOwedResponse(s *entities.MoneyOwedSummary) moneyOwedResponse {
	balances := make([]balanceResponse, 0, len(s.Balances))
	for _, b := range s.Balances {
		balances = append(balances, balanceResponse{
			CounterpartyID:   b.CounterpartyID,
			CounterpartyName: b.CounterpartyName,
			Amount:           money(b.Amount),
		})
	}
	return moneyOwedResponse{
		UserID:      s.UserID,
		ToReceive:   money(s.ToReceive),
		ToPay:       money(s.ToPay),
		Net:         money(s.Net()),
		Balances:    balances,
		Obligations: toDebtRecordResponses(s.Obligations),
	}
}

func toRejectionResponse(r *entities.Rejection) rejectionResponse {
	resp := rejectionResponse{
		Error:   "rejected",
		Reason:  string(r.Reason),
		Message: r.Message(),
	}
	if r.Reason == entities.RejectionMaxStakeExceeded {
		limit := money(r.MaxStake)
		resp.MaxStake = &limit
	}
	return resp
}
