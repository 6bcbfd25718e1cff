package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_bets_total",
			Help: "Settled wagers by game and outcome",
		},
		[]string{"game", "outcome"},
	)

	WageredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_amount_total",
			Help: "Currency staked per game",
		},
		[]string{"game"},
	)

	PayoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_payout_total",
			Help: "Currency paid back to players per game",
		},
		[]string{"game"},
	)

	JackpotPool = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wager_jackpot_pool",
			Help: "Current progressive jackpot pool",
		},
	)

	IntegrityErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_integrity_errors_total",
			Help: "Units of work rolled back by an unexpected failure",
		},
		[]string{"op"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome labels for BetsTotal.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomePush = "push"
)

// RecordBet counts one settled wager. The outcome is derived from payout
// against wager.
func RecordBet(game string, wager, payout int64) {
	outcome := OutcomeLoss

	switch {
	case payout > wager:
		outcome = OutcomeWin
	case payout == wager:
		outcome = OutcomePush
	}

	BetsTotal.WithLabelValues(game, outcome).Inc()
	WageredTotal.WithLabelValues(game).Add(float64(wager))

	if payout > 0 {
		PayoutTotal.WithLabelValues(game).Add(float64(payout))
	}
}

// RecordPayout counts a payout made outside a single wager, such as a
// lottery prize.
func RecordPayout(game string, amount int64) {
	if amount > 0 {
		PayoutTotal.WithLabelValues(game).Add(float64(amount))
	}
}

func SetJackpotPool(amount int64) {
	JackpotPool.Set(float64(amount))
}

func RecordIntegrityError(op string) {
	IntegrityErrorsTotal.WithLabelValues(op).Inc()
}

func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// Middleware records every request under its chi route pattern, so path
// parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
	})
}
