package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/fastprodman/wagerengine/internal/services/coinflip"
	"github.com/fastprodman/wagerengine/internal/services/lottery"
	"github.com/fastprodman/wagerengine/internal/services/slots"
	"github.com/fastprodman/wagerengine/internal/services/stats"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBody = 1 << 20

// Services is everything the HTTP surface calls into.
type Services struct {
	Guard     *wager.Guard
	Blackjack *blackjack.Service
	Slots     *slots.Service
	Coinflip  *coinflip.Service
	Lottery   *lottery.Service
	Stats     *stats.Service
}

// HandlerProvider exposes the game services as HTTP handlers.
type HandlerProvider struct {
	svc Services
}

func NewHandler(svc Services) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details []ValidationError `json:"details,omitempty"`
}

// writeError maps a classified error to its status. Unclassified errors are
// integrity failures and never leak their text.
func writeError(w http.ResponseWriter, err error) {
	var e *gameerr.Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: gameerr.CodeOf(err)})

		return
	}

	writeJSON(w, statusFor(e), errorBody{Error: e.Message, Code: e.Code})
}

func statusFor(e *gameerr.Error) int {
	switch e.Kind {
	case gameerr.KindValidation:
		if e == gameerr.ErrNotFound || e == gameerr.ErrPlayerNotFound {
			return http.StatusNotFound
		}

		return http.StatusBadRequest
	case gameerr.KindInsufficientFunds, gameerr.KindInvalidState, gameerr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parsePlayerID reads `{playerId}` from chi routes like:
//
//	GET  /players/{playerId}/balance
//	POST /players/{playerId}/slots/spin
func parsePlayerID(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "playerId")
	if idStr == "" {
		return 0, fmt.Errorf("%w: missing playerId", gameerr.ErrInvalidRequest)
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid playerId", gameerr.ErrInvalidRequest)
	}

	return id, nil
}

func parseUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", gameerr.ErrInvalidRequest, param)
	}

	return id, nil
}

// decode reads a JSON body into dst, rejecting unknown fields, then runs the
// struct's validate tags. It writes the error response itself.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()

	err := dec.Decode(dst)
	if err != nil {
		msg := "invalid JSON"
		if errors.Is(err, io.EOF) {
			msg = "empty body"
		}

		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: gameerr.ErrInvalidRequest.Code})

		return false
	}

	if details := validateStruct(dst); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation failed",
			Code:    gameerr.ErrInvalidRequest.Code,
			Details: details,
		})

		return false
	}

	return true
}

type wagerRequest struct {
	Amount json.Number `json:"amount" validate:"required"`
}

// amount accepts whole units only; anything else is an invalid amount.
func (req wagerRequest) amount() (int64, error) {
	n, err := req.Amount.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: amount must be a whole number", gameerr.ErrInvalidAmount)
	}

	return n, nil
}

type challengeRequest struct {
	wagerRequest
	Call string `json:"call" validate:"required"`
}

type ticketRequest struct {
	Numbers []int `json:"numbers" validate:"required,min=1"`
}

// --- Ledger and projections ---

// GetBalanceHandler handles GET /players/{playerId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	bal, err := h.svc.Guard.Balance(r.Context(), playerID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"playerId": playerID, "balance": bal})
}

// GetStatsHandler handles GET /players/{playerId}/stats
func (h *HandlerProvider) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	st, err := h.svc.Stats.PlayerStats(r.Context(), playerID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *HandlerProvider) JackpotHandler(w http.ResponseWriter, r *http.Request) {
	jp, err := h.svc.Stats.Jackpot(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, jp)
}

func (h *HandlerProvider) PoolsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Stats.Pools(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, p)
}
