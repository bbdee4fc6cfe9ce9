package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"peerbets/application"
	"peerbets/domain/entities"
	"peerbets/domain/interfaces"
	"peerbets/domain/services"
	"peerbets/infrastructure/observability"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	userIDHeader    = "X-User-ID"
	maxRequestBytes = 1 << 20
)

// Handler exposes the betting service over HTTP. Each request runs in its own unit of work.
type Handler struct {
	uowFactory application.UnitOfWorkFactory
	oddsCache  interfaces.OddsCache
	metrics    *observability.MetricsProvider
	odds       *services.OddsCalculator
	readiness  func(ctx context.Context) error
	now        func() time.Time
}

// NewHandler creates a new Handler. oddsCache and metrics may be nil.
func NewHandler(uowFactory application.UnitOfWorkFactory, oddsCache interfaces.OddsCache, metrics *observability.MetricsProvider) *Handler {
	return &Handler{
		uowFactory: uowFactory,
		oddsCache:  oddsCache,
		metrics:    metrics,
		odds:       services.NewOddsCalculator(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithReadiness sets the dependency check behind /readyz
func (h *Handler) WithReadiness(check func(ctx context.Context) error) *Handler {
	h.readiness = check
	return h
}

// Ready reports whether the backing store accepts queries
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		if err := h.readiness(r.Context()); err != nil {
			log.WithError(err).Warn("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// inTransaction runs fn against a betting service bound to a fresh unit of work.
// The transaction commits only when fn asks for it and returns no error.
func (h *Handler) inTransaction(ctx context.Context, fn func(svc interfaces.BettingService) (commit bool, err error)) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	svc := services.NewBettingService(
		uow.EventRepository(),
		uow.PlacementRepository(),
		uow.ProfileRepository(),
		uow.EventBus(),
		h.oddsCache,
	)

	commit, err := fn(svc)
	if err != nil || !commit {
		return err
	}
	return uow.Commit()
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRejection(w http.ResponseWriter, rejection *entities.Rejection) {
	status := http.StatusUnprocessableEntity
	if rejection.Reason == entities.RejectionNotAuthorized {
		status = http.StatusForbidden
	}
	writeJSON(w, status, toRejectionResponse(rejection))
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entities.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, entities.ErrConflict):
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:     "concurrent update, please retry",
			Retryable: true,
		})
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s header", userIDHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s header", userIDHeader)
	}
	return id, nil
}

func eventIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id")
	}
	return id, nil
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id")
	}
	return id, nil
}

// --- Handlers ---

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	var list []*entities.Event
	err := h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		list, err = svc.ListEvents(r.Context(), limit)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := h.now()
	resp := make([]eventResponse, 0, len(list))
	for _, event := range list {
		resp = append(resp, toEventResponse(event, h.odds, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	creator, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := interfaces.EventCreationParams{
		Kind:     entities.EventKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Name:     req.Name,
		SideA:    req.SideA,
		SideB:    req.SideB,
		ClosesAt: req.ClosesAt,
		Currency: req.Currency,
		Stake:    req.Stake,
		MaxStake: req.MaxStake,
	}

	var result *interfaces.EventCreationResult
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		result, err = svc.CreateEvent(r.Context(), creator, params)
		return err == nil && result.Rejection == nil, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.Rejection != nil {
		writeRejection(w, result.Rejection)
		return
	}

	h.metrics.RecordEventCreated(string(result.Event.Kind))
	writeJSON(w, http.StatusCreated, toEventResponse(result.Event, h.odds, h.now()))
}

// GetEvent handles GET /events/{eventID}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var event *entities.Event
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		event, err = svc.GetEvent(r.Context(), eventID)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event, h.odds, h.now()))
}

// HideEvent handles POST /events/{eventID}/hide
func (h *Handler) HideEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rejection *entities.Rejection
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		rejection, err = svc.HideEvent(r.Context(), eventID, userID)
		return err == nil && rejection == nil, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rejection != nil {
		writeRejection(w, rejection)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOdds handles GET /events/{eventID}/odds
func (h *Handler) GetOdds(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snapshot *entities.OddsSnapshot
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		snapshot, err = svc.GetOdds(r.Context(), eventID)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOddsResponse(snapshot))
}

// PlaceBet handles POST /events/{eventID}/placements
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req placementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, ok := req.parseAmount()
	if !ok {
		h.metrics.RecordPlacementRejected(string(entities.RejectionInvalidAmount))
		writeRejection(w, entities.Reject(entities.RejectionInvalidAmount))
		return
	}
	side := entities.Side(strings.ToUpper(strings.TrimSpace(req.Side)))

	var result *interfaces.PlacementResult
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		result, err = svc.PlaceBet(r.Context(), eventID, userID, side, amount)
		return err == nil && result.Rejection == nil, err
	})
	if err != nil {
		if errors.Is(err, entities.ErrConflict) {
			h.metrics.RecordPlacementConflict()
		}
		writeServiceError(w, r, err)
		return
	}
	if result.Rejection != nil {
		h.metrics.RecordPlacementRejected(string(result.Rejection.Reason))
		writeRejection(w, result.Rejection)
		return
	}

	h.metrics.RecordPlacementAccepted(string(result.Event.Kind), result.Event.Currency, result.Placement.Amount)

	resp := placementAcceptedResponse{
		Placement: toPlacementResponse(result.Placement),
		Event:     toEventResponse(result.Event, h.odds, h.now()),
	}
	if result.Event.IsWager() {
		odds := h.odds.Odds(result.Placement.Side, result.Event.PoolA, result.Event.PoolB)
		potential := money(int64(math.Round(h.odds.PotentialWinnings(result.Placement.Amount, odds))))
		resp.PotentialWinnings = &potential
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ResolveEvent handles POST /events/{eventID}/resolve
func (h *Handler) ResolveEvent(w http.ResponseWriter, r *http.Request) {
	resolverID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side := entities.Side(strings.ToUpper(strings.TrimSpace(req.WinningSide)))

	var result *interfaces.ResolutionResult
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		result, err = svc.ResolveEvent(r.Context(), eventID, resolverID, side)
		return err == nil && result.Rejection == nil, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.Rejection != nil {
		writeRejection(w, result.Rejection)
		return
	}

	h.metrics.RecordEventResolved(string(result.Event.Kind), len(result.Settlement.Records))
	writeJSON(w, http.StatusOK, resolutionResponse{
		Event:      toEventResponse(result.Event, h.odds, h.now()),
		Settlement: toSettlementResponse(eventID, result.Settlement),
	})
}

// GetSettlement handles GET /events/{eventID}/settlement
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var settlement *entities.SettlementOutcome
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		settlement, err = svc.GetSettlement(r.Context(), eventID)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(eventID, settlement))
}

// MarkPaid handles POST /events/{eventID}/placements/{userID}/paid
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	markedBy, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	debtorID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rejection *entities.Rejection
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		rejection, err = svc.MarkPaid(r.Context(), eventID, debtorID, markedBy)
		return err == nil && rejection == nil, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rejection != nil {
		writeRejection(w, rejection)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserBets handles GET /users/{userID}/bets
func (h *Handler) GetUserBets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var bets []*entities.UserPlacement
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		bets, err = svc.GetUserBets(r.Context(), userID)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := h.now()
	resp := make([]userBetResponse, 0, len(bets))
	for _, bet := range bets {
		resp = append(resp, userBetResponse{
			Placement: toPlacementResponse(bet.Placement),
			Event:     toEventResponse(bet.Event, h.odds, now),
			Status:    string(bet.Status),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMoneyOwed handles GET /users/{userID}/debts
func (h *Handler) GetMoneyOwed(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var summary *entities.MoneyOwedSummary
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		summary, err = svc.GetMoneyOwed(r.Context(), userID)
		return false, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMoneyOwedResponse(summary))
}

// UpsertProfile handles PUT /profiles/me
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		profile   *entities.Profile
		rejection *entities.Rejection
	)
	err = h.inTransaction(r.Context(), func(svc interfaces.BettingService) (bool, error) {
		var err error
		profile, rejection, err = svc.UpsertProfile(r.Context(), userID, req.Username)
		return err == nil && rejection == nil, err
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rejection != nil {
		writeRejection(w, rejection)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:        profile.ID,
		Username:  profile.Username,
		UpdatedAt: profile.UpdatedAt,
	})
}
