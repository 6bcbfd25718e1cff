package api

import (
	"net/http"

	"github.com/fastprodman/wagerengine/internal/metrics"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every endpoint on a chi router.
func NewRouter(svc Services) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/players/{playerId}", func(r chi.Router) {
		r.Get("/balance", h.GetBalanceHandler)
		r.Get("/stats", h.GetStatsHandler)

		r.Get("/blackjack", h.CurrentBlackjackHandler)
		r.Post("/blackjack/start", h.StartBlackjackHandler)
		r.Post("/blackjack/hit", h.blackjackAction((*blackjack.Service).Hit))
		r.Post("/blackjack/stand", h.blackjackAction((*blackjack.Service).Stand))
		r.Post("/blackjack/double", h.blackjackAction((*blackjack.Service).Double))

		r.Post("/slots/spin", h.SpinHandler)

		r.Post("/coinflip", h.CreateChallengeHandler)
		r.Delete("/coinflip", h.CancelChallengeHandler)
		r.Post("/coinflip/{challengeId}/accept", h.AcceptChallengeHandler)

		r.Post("/lottery/tickets", h.BuyTicketHandler)
		r.Get("/lottery/tickets", h.ListTicketsHandler)
	})

	r.Get("/slots/paytable", h.PaytableHandler)

	r.Get("/coinflip/open", h.ListChallengesHandler)
	r.Get("/coinflip/{challengeId}", h.GetChallengeHandler)
	r.Post("/coinflip/sweep", h.SweepHandler)

	r.Get("/lottery/current", h.CurrentDrawHandler)
	r.Get("/lottery/draws/{drawId}", h.GetDrawHandler)
	r.Post("/lottery/draws/{drawId}/execute", h.ExecuteDrawHandler)
	r.Post("/lottery/draws/execute-due", h.ExecuteDueHandler)

	r.Get("/jackpot", h.JackpotHandler)
	r.Get("/pools", h.PoolsHandler)

	return r
}
