package memstore

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/fastprodman/wagerengine/internal/repos/history"
)

type historyView struct{ s *Store }

func (v historyView) Record(_ context.Context, _ *sql.Tx, r history.Record) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("history.record"); err != nil {
		return err
	}

	v.s.data.history = append(v.s.data.history, r)

	return nil
}

func (v historyView) StatsByGame(_ context.Context, playerID uint64) ([]history.GameStats, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	byGame := make(map[string]*history.GameStats)

	for _, r := range v.s.data.history {
		if r.PlayerID != playerID {
			continue
		}

		st, ok := byGame[r.Game]
		if !ok {
			st = &history.GameStats{Game: r.Game}
			byGame[r.Game] = st
		}

		st.Played++
		st.Wagered += r.Wager
		st.Won += r.Payout

		if r.Payout > r.Wager {
			st.Wins++
			st.BiggestWin = max(st.BiggestWin, r.Payout-r.Wager)
		}
	}

	out := make([]history.GameStats, 0, len(byGame))
	for _, st := range byGame {
		out = append(out, *st)
	}

	slices.SortFunc(out, func(a, b history.GameStats) int { return strings.Compare(a.Game, b.Game) })

	return out, nil
}
