// Package memstore keeps every repository in process memory behind a
// TxRunner that serializes units of work and restores a snapshot when one
// fails. Services run against it unchanged, which is how their atomicity and
// conservation properties are tested without a database.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/google/uuid"
)

const maxAttempts = 3

var (
	_ pgutils.TxRunner    = (*Store)(nil)
	_ ledger.Ledger       = ledgerView{}
	_ blackjack.Sessions  = sessionsView{}
	_ coinflip.Challenges = challengesView{}
	_ lottery.Draws       = drawsView{}
	_ jackpot.Pools       = poolsView{}
	_ history.Store       = historyView{}
)

// Entry is one journaled balance movement.
type Entry struct {
	PlayerID uint64
	Delta    int64
	Reason   string
	Ref      string
}

type reservation struct {
	ledger.Reservation
	Payout int64
}

type state struct {
	balances     map[uint64]int64
	reservations map[uuid.UUID]reservation
	entries      []Entry
	refs         map[string]struct{}
	sessions     map[uint64]blackjack.Session
	challenges   map[uuid.UUID]coinflip.Challenge
	draws        map[uuid.UUID]lottery.Draw
	tickets      []lottery.Ticket
	pool         *jackpot.Pool
	history      []history.Record
}

func newState() *state {
	return &state{
		balances:     make(map[uint64]int64),
		reservations: make(map[uuid.UUID]reservation),
		refs:         make(map[string]struct{}),
		sessions:     make(map[uint64]blackjack.Session),
		challenges:   make(map[uuid.UUID]coinflip.Challenge),
		draws:        make(map[uuid.UUID]lottery.Draw),
	}
}

func (s *state) clone() *state {
	c := &state{
		balances:     maps.Clone(s.balances),
		reservations: maps.Clone(s.reservations),
		entries:      slices.Clone(s.entries),
		refs:         maps.Clone(s.refs),
		sessions:     make(map[uint64]blackjack.Session, len(s.sessions)),
		challenges:   maps.Clone(s.challenges),
		draws:        make(map[uuid.UUID]lottery.Draw, len(s.draws)),
		tickets:      make([]lottery.Ticket, len(s.tickets)),
		history:      slices.Clone(s.history),
	}

	for k, v := range s.sessions {
		c.sessions[k] = cloneSession(v)
	}

	for k, v := range s.draws {
		v.WinningNumbers = slices.Clone(v.WinningNumbers)
		c.draws[k] = v
	}

	for i, t := range s.tickets {
		t.Numbers = slices.Clone(t.Numbers)
		c.tickets[i] = t
	}

	if s.pool != nil {
		p := *s.pool
		c.pool = &p
	}

	return c
}

// Store is safe for concurrent use. Units of work run one at a time.
// Each repository is a view over the same state, obtained from Ledger,
// Sessions, Challenges, Draws, Pools and History.
type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	data     *state
	failures map[string]error
}

func New() *Store {
	return &Store{data: newState(), failures: make(map[string]error)}
}

// InTx runs fn with a nil *sql.Tx. Changes made by a failing fn are undone.
// Retryable failures re-run fn, like pgutils.Runner.
func (s *Store) InTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error

	for range maxAttempts {
		err = s.attempt(ctx, fn)
		if err == nil || !pgutils.IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, err)
}

func (s *Store) attempt(ctx context.Context, fn func(*sql.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	err := fn(nil)
	if err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	return err
}

// FailNext makes the next call of op return err. Op names are
// "<repo>.<method>", for example "ledger.settle" or "jackpot.update".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[op] = err
}

// injected must be called with mu held.
func (s *Store) injected(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}

	delete(s.failures, op)

	return err
}

// SeedPlayer creates or overwrites a player's balance.
func (s *Store) SeedPlayer(id uint64, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.balances[id] = balance
}

// Balance returns a player's balance, or -1 if unknown.
func (s *Store) Balance(id uint64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.data.balances[id]
	if !ok {
		return -1
	}

	return b
}

// Entries returns a copy of the journal.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.data.entries)
}

// HeldReservations counts reservations neither settled nor voided.
func (s *Store) HeldReservations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, r := range s.data.reservations {
		if r.Status == ledger.ReservationHeld {
			n++
		}
	}

	return n
}

// HeldAmount sums the amounts of open reservations.
func (s *Store) HeldAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64

	for _, r := range s.data.reservations {
		if r.Status == ledger.ReservationHeld {
			total += r.Amount
		}
	}

	return total
}

func (s *Store) Ledger() ledger.Ledger { return ledgerView{s} }
func (s *Store) Sessions() blackjack.Sessions { return sessionsView{s} }
func (s *Store) Challenges() coinflip.Challenges { return challengesView{s} }
func (s *Store) Draws() lottery.Draws { return drawsView{s} }
func (s *Store) Pools() jackpot.Pools { return poolsView{s} }
func (s *Store) History() history.Store { return historyView{s} }

// Records returns a copy of every recorded outcome.
func (s *Store) Records() []history.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.data.history)
}
