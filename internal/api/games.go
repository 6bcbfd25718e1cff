package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/fastprodman/wagerengine/internal/services/lottery"
)

// --- Blackjack ---

func (h *HandlerProvider) CurrentBlackjackHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	v, err := h.svc.Blackjack.Current(r.Context(), playerID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, v)
}

// StartBlackjackHandler handles POST /players/{playerId}/blackjack/start
func (h *HandlerProvider) StartBlackjackHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	var req wagerRequest
	if !decode(w, r, &req) {
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeError(w, err)

		return
	}

	v, err := h.svc.Blackjack.Start(r.Context(), playerID, amount)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, v)
}

// blackjackAction adapts hit, stand and double, which take no body.
func (h *HandlerProvider) blackjackAction(act func(*blackjack.Service, context.Context, uint64) (blackjack.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			writeError(w, err)

			return
		}

		v, err := act(h.svc.Blackjack, r.Context(), playerID)
		if err != nil {
			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, v)
	}
}

// --- Slots ---

// SpinHandler handles POST /players/{playerId}/slots/spin
func (h *HandlerProvider) SpinHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	var req wagerRequest
	if !decode(w, r, &req) {
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeError(w, err)

		return
	}

	res, err := h.svc.Slots.Spin(r.Context(), playerID, amount)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *HandlerProvider) PaytableHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Slots.Paytable())
}

// --- Coinflip ---

// CreateChallengeHandler handles POST /players/{playerId}/coinflip
func (h *HandlerProvider) CreateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	var req challengeRequest
	if !decode(w, r, &req) {
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeError(w, err)

		return
	}

	call, err := outcome.ParseSide(req.Call)
	if err != nil {
		writeError(w, gameerr.ErrInvalidCall)

		return
	}

	v, err := h.svc.Coinflip.Create(r.Context(), playerID, amount, call)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// CancelChallengeHandler handles DELETE /players/{playerId}/coinflip
func (h *HandlerProvider) CancelChallengeHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	v, err := h.svc.Coinflip.Cancel(r.Context(), playerID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, v)
}

// AcceptChallengeHandler handles POST /players/{playerId}/coinflip/{challengeId}/accept
func (h *HandlerProvider) AcceptChallengeHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	id, err := parseUUID(r, "challengeId")
	if err != nil {
		writeError(w, err)

		return
	}

	res, err := h.svc.Coinflip.Accept(r.Context(), playerID, id)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListChallengesHandler handles GET /coinflip/open?limit=N
func (h *HandlerProvider) ListChallengesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, gameerr.ErrInvalidRequest)

			return
		}

		limit = n
	}

	list, err := h.svc.Coinflip.ListOpen(r.Context(), limit)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *HandlerProvider) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r, "challengeId")
	if err != nil {
		writeError(w, err)

		return
	}

	v, err := h.svc.Coinflip.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, v)
}

// SweepHandler handles POST /coinflip/sweep, called by the scheduler.
func (h *HandlerProvider) SweepHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Coinflip.SweepExpired(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

// --- Lottery ---

// BuyTicketHandler handles POST /players/{playerId}/lottery/tickets
func (h *HandlerProvider) BuyTicketHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	var req ticketRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.svc.Lottery.BuyTicket(r.Context(), playerID, req.Numbers)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *HandlerProvider) ListTicketsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, err)

		return
	}

	tickets, err := h.svc.Lottery.Tickets(r.Context(), playerID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, tickets)
}

func (h *HandlerProvider) CurrentDrawHandler(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Lottery.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *HandlerProvider) GetDrawHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r, "drawId")
	if err != nil {
		writeError(w, err)

		return
	}

	d, err := h.svc.Lottery.GetDraw(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, d)
}

// ExecuteDrawHandler handles POST /lottery/draws/{drawId}/execute
func (h *HandlerProvider) ExecuteDrawHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r, "drawId")
	if err != nil {
		writeError(w, err)

		return
	}

	res, err := h.svc.Lottery.ExecuteDraw(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ExecuteDueHandler handles POST /lottery/draws/execute-due. One failing draw
// fails the request; draws that already ran stay resolved.
func (h *HandlerProvider) ExecuteDueHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Lottery.ExecuteDue(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	if res == nil {
		res = []lottery.DrawResult{}
	}

	writeJSON(w, http.StatusOK, res)
}
