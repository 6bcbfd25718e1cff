package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/google/uuid"
)

type ledgerView struct{ s *Store }

func (v ledgerView) GetBalance(_ context.Context, playerID uint64) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	b, ok := v.s.data.balances[playerID]
	if !ok {
		return 0, ledger.ErrPlayerNotFound
	}

	return b, nil
}

func (v ledgerView) LockAndGetBalance(ctx context.Context, _ *sql.Tx, playerID uint64) (int64, error) {
	return v.GetBalance(ctx, playerID)
}

func (v ledgerView) Reserve(_ context.Context, _ *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("ledger.reserve"); err != nil {
		return ledger.Reservation{}, err
	}

	d := v.s.data

	b, ok := d.balances[playerID]
	if !ok {
		return ledger.Reservation{}, ledger.ErrPlayerNotFound
	}

	if b < amount {
		return ledger.Reservation{}, ledger.ErrInsufficientFunds
	}

	rsv := ledger.Reservation{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Game:      game,
		Amount:    amount,
		Status:    ledger.ReservationHeld,
		CreatedAt: time.Now(),
	}

	if err := d.journal(playerID, -amount, "reserve:"+game, "reserve:"+rsv.ID.String()); err != nil {
		return ledger.Reservation{}, err
	}

	d.balances[playerID] = b - amount
	d.reservations[rsv.ID] = reservation{Reservation: rsv}

	return rsv, nil
}

func (v ledgerView) Settle(_ context.Context, _ *sql.Tx, reservationID uuid.UUID, payout int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("ledger.settle"); err != nil {
		return err
	}

	if payout < 0 {
		return fmt.Errorf("settle %s: negative payout %d", reservationID, payout)
	}

	d := v.s.data

	r, err := d.held(reservationID)
	if err != nil {
		return err
	}

	if payout > 0 {
		if err := d.journal(r.PlayerID, payout, "payout:"+r.Game, "settle:"+reservationID.String()); err != nil {
			return err
		}

		d.balances[r.PlayerID] += payout
	}

	r.Status = ledger.ReservationSettled
	r.Payout = payout
	d.reservations[reservationID] = r

	return nil
}

func (v ledgerView) Void(_ context.Context, _ *sql.Tx, reservationID uuid.UUID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("ledger.void"); err != nil {
		return err
	}

	d := v.s.data

	r, err := d.held(reservationID)
	if err != nil {
		return err
	}

	if err := d.journal(r.PlayerID, r.Amount, "refund:"+r.Game, "void:"+reservationID.String()); err != nil {
		return err
	}

	d.balances[r.PlayerID] += r.Amount
	r.Status = ledger.ReservationVoided
	r.Payout = r.Amount
	d.reservations[reservationID] = r

	return nil
}

func (v ledgerView) Credit(_ context.Context, _ *sql.Tx, playerID uint64, amount int64, ref string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("ledger.credit"); err != nil {
		return err
	}

	if amount <= 0 {
		return fmt.Errorf("credit %s: amount must be positive, got %d", ref, amount)
	}

	d := v.s.data

	if _, ok := d.balances[playerID]; !ok {
		return ledger.ErrPlayerNotFound
	}

	if err := d.journal(playerID, amount, "credit", ref); err != nil {
		return err
	}

	d.balances[playerID] += amount

	return nil
}

func (d *state) held(id uuid.UUID) (reservation, error) {
	r, ok := d.reservations[id]
	if !ok {
		return reservation{}, ledger.ErrReservationNotFound
	}

	if r.Status != ledger.ReservationHeld {
		return reservation{}, ledger.ErrReservationClosed
	}

	return r, nil
}

func (d *state) journal(playerID uint64, delta int64, reason, ref string) error {
	if _, dup := d.refs[ref]; dup {
		return ledger.ErrDuplicateEntry
	}

	d.refs[ref] = struct{}{}
	d.entries = append(d.entries, Entry{PlayerID: playerID, Delta: delta, Reason: reason, Ref: ref})

	return nil
}
