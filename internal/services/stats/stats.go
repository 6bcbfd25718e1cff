// Package stats serves read-only projections over settled play and pools.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/services/jackpot"
	"github.com/fastprodman/wagerengine/internal/services/lottery"
	"github.com/fastprodman/wagerengine/internal/services/wager"
)

type Totals struct {
	Played     int64 `json:"played"`
	Wins       int64 `json:"wins"`
	Wagered    int64 `json:"wagered"`
	Won        int64 `json:"won"`
	NetProfit  int64 `json:"netProfit"`
	BiggestWin int64 `json:"biggestWin"`
}

type GameTotals struct {
	Game string `json:"game"`
	Totals
}

type PlayerStats struct {
	PlayerID uint64       `json:"playerId"`
	Balance  int64        `json:"balance"`
	Overall  Totals       `json:"overall"`
	Games    []GameTotals `json:"games"`
}

type Jackpot struct {
	CurrentPool      int64      `json:"currentPool"`
	Seed             int64      `json:"seed"`
	ContributionRate string     `json:"contributionRate"`
	LastWinnerID     *uint64    `json:"lastWinnerId,omitempty"`
	LastWinAmount    *int64     `json:"lastWinAmount,omitempty"`
	LastWonAt        *time.Time `json:"lastWonAt,omitempty"`
}

type Pools struct {
	Jackpot Jackpot           `json:"jackpot"`
	Lottery *lottery.DrawView `json:"lottery,omitempty"`
}

type Service struct {
	guard   *wager.Guard
	history history.Store
	jackpot *jackpot.Service
	lottery *lottery.Service
}

func New(guard *wager.Guard, hist history.Store, jp *jackpot.Service, lot *lottery.Service) *Service {
	return &Service{guard: guard, history: hist, jackpot: jp, lottery: lot}
}

// PlayerStats totals a player's settled outcomes, overall and per game.
func (s *Service) PlayerStats(ctx context.Context, playerID uint64) (PlayerStats, error) {
	balance, err := s.guard.Balance(ctx, playerID)
	if err != nil {
		return PlayerStats{}, err
	}

	rows, err := s.history.StatsByGame(ctx, playerID)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("player stats: %w", err)
	}

	out := PlayerStats{PlayerID: playerID, Balance: balance, Games: make([]GameTotals, 0, len(rows))}

	for _, r := range rows {
		t := Totals{
			Played:     r.Played,
			Wins:       r.Wins,
			Wagered:    r.Wagered,
			Won:        r.Won,
			NetProfit:  r.Won - r.Wagered,
			BiggestWin: r.BiggestWin,
		}

		out.Games = append(out.Games, GameTotals{Game: r.Game, Totals: t})

		out.Overall.Played += t.Played
		out.Overall.Wins += t.Wins
		out.Overall.Wagered += t.Wagered
		out.Overall.Won += t.Won
		out.Overall.NetProfit += t.NetProfit
		out.Overall.BiggestWin = max(out.Overall.BiggestWin, t.BiggestWin)
	}

	return out, nil
}

func (s *Service) Jackpot(ctx context.Context) (Jackpot, error) {
	p, err := s.jackpot.Snapshot(ctx)
	if err != nil {
		return Jackpot{}, err
	}

	return Jackpot{
		CurrentPool:      p.CurrentPool,
		Seed:             p.Seed,
		ContributionRate: p.ContributionRate.String(),
		LastWinnerID:     p.LastWinnerID,
		LastWinAmount:    p.LastWinAmount,
		LastWonAt:        p.LastWonAt,
	}, nil
}

// Pools reports the jackpot and, when one is open, the current lottery draw.
func (s *Service) Pools(ctx context.Context) (Pools, error) {
	jp, err := s.Jackpot(ctx)
	if err != nil {
		return Pools{}, err
	}

	out := Pools{Jackpot: jp}

	draw, err := s.lottery.Snapshot(ctx)

	switch {
	case errors.Is(err, gameerr.ErrNotFound):
	case err != nil:
		return Pools{}, err
	default:
		out.Lottery = &draw
	}

	return out, nil
}
