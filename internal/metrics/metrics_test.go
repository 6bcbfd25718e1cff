package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBet(t *testing.T) {
	BetsTotal.Reset()
	WageredTotal.Reset()
	PayoutTotal.Reset()

	RecordBet("slots", 100, 0)
	RecordBet("slots", 100, 300)
	RecordBet("blackjack", 50, 50)

	assert.Equal(t, float64(1), testutil.ToFloat64(BetsTotal.WithLabelValues("slots", OutcomeLoss)))
	assert.Equal(t, float64(1), testutil.ToFloat64(BetsTotal.WithLabelValues("slots", OutcomeWin)))
	assert.Equal(t, float64(1), testutil.ToFloat64(BetsTotal.WithLabelValues("blackjack", OutcomePush)))
	assert.Equal(t, float64(200), testutil.ToFloat64(WageredTotal.WithLabelValues("slots")))
	assert.Equal(t, float64(300), testutil.ToFloat64(PayoutTotal.WithLabelValues("slots")))
}

func TestSetJackpotPool(t *testing.T) {
	SetJackpotPool(5020)

	assert.Equal(t, float64(5020), testutil.ToFloat64(JackpotPool))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	HTTPRequestsTotal.Reset()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/players/{playerId}/balance", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/"+id+"/balance", nil))
	}

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/players/{playerId}/balance", "418"))
	assert.Equal(t, float64(2), got)
}
