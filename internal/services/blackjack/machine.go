package blackjack

import (
	"fmt"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/shopspring/decimal"
)

type State string

const (
	StateAwaitingBet State = "awaiting_bet"
	StateDealt       State = "dealt"
	StatePlayerTurn  State = "player_turn"
	StateDealerTurn  State = "dealer_turn"
	StateSettled     State = "settled"
)

type Outcome string

const (
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeWin       Outcome = "win"
	OutcomePush      Outcome = "push"
	OutcomeLoss      Outcome = "loss"
	OutcomeBust      Outcome = "bust"
)

// Rules are fixed at process start.
type Rules struct {
	DealerHitsSoft17 bool
	// NaturalPayout is the total returned per unit staked on a natural.
	NaturalPayout decimal.Decimal
}

// round is one hand moving through the state machine. Every transition
// checks its source state and leaves the round untouched when it is wrong.
type round struct {
	state   State
	player  Hand
	dealer  Hand
	shoe    *outcome.Shoe
	wager   int64
	doubled bool
	outcome Outcome
	payout  int64
}

func newRound(shoe *outcome.Shoe, wager int64) *round {
	return &round{state: StateAwaitingBet, shoe: shoe, wager: wager}
}

func (r *round) expect(s State) error {
	if r.state != s {
		return fmt.Errorf("%w: %s", gameerr.ErrInvalidState, r.state)
	}

	return nil
}

func (r *round) draw() (outcome.Card, error) {
	c, err := r.shoe.Draw()
	if err != nil {
		return outcome.Card{}, fmt.Errorf("draw card: %w", err)
	}

	return c, nil
}

// deal: awaiting_bet -> dealt. Player and dealer alternate, player first.
func (r *round) deal() error {
	if err := r.expect(StateAwaitingBet); err != nil {
		return err
	}

	for range 2 {
		p, err := r.draw()
		if err != nil {
			return err
		}

		d, err := r.draw()
		if err != nil {
			return err
		}

		r.player = append(r.player, p)
		r.dealer = append(r.dealer, d)
	}

	r.state = StateDealt

	return nil
}

// open: dealt -> settled on a player natural, else player_turn.
func (r *round) open(rules Rules) error {
	if err := r.expect(StateDealt); err != nil {
		return err
	}

	if !r.player.Natural() {
		r.state = StatePlayerTurn

		return nil
	}

	if r.dealer.Natural() {
		r.finish(OutcomePush, r.wager)

		return nil
	}

	r.finish(OutcomeBlackjack, decimal.NewFromInt(r.wager).Mul(rules.NaturalPayout).Floor().IntPart())

	return nil
}

// hit: player_turn -> player_turn, or settled on a bust.
func (r *round) hit() error {
	if err := r.expect(StatePlayerTurn); err != nil {
		return err
	}

	c, err := r.draw()
	if err != nil {
		return err
	}

	r.player = append(r.player, c)

	if r.player.Busted() {
		r.finish(OutcomeBust, 0)
	}

	return nil
}

// stand: player_turn -> dealer_turn.
func (r *round) stand() error {
	if err := r.expect(StatePlayerTurn); err != nil {
		return err
	}

	r.state = StateDealerTurn

	return nil
}

// canDouble reports whether double is legal right now.
func (r *round) canDouble() error {
	if err := r.expect(StatePlayerTurn); err != nil {
		return err
	}

	if len(r.player) != 2 {
		return fmt.Errorf("%w: double needs exactly two cards", gameerr.ErrInvalidState)
	}

	return nil
}

// double: player_turn -> dealer_turn with the stake doubled and exactly one
// more card, bust or not.
func (r *round) double() error {
	if err := r.canDouble(); err != nil {
		return err
	}

	c, err := r.draw()
	if err != nil {
		return err
	}

	r.player = append(r.player, c)
	r.wager *= 2
	r.doubled = true
	r.state = StateDealerTurn

	return nil
}

// playDealer: dealer_turn -> settled. The dealer draws to 17, hitting a soft
// 17 only when the rules say so, then the hands are compared.
func (r *round) playDealer(rules Rules) error {
	if err := r.expect(StateDealerTurn); err != nil {
		return err
	}

	if r.player.Busted() {
		r.finish(OutcomeBust, 0)

		return nil
	}

	for {
		total, soft := r.dealer.Value()
		if total > 17 || (total == 17 && !(soft && rules.DealerHitsSoft17)) {
			break
		}

		c, err := r.draw()
		if err != nil {
			return err
		}

		r.dealer = append(r.dealer, c)
	}

	player, dealer := r.player.Total(), r.dealer.Total()

	switch {
	case r.dealer.Busted() || player > dealer:
		r.finish(OutcomeWin, 2*r.wager)
	case player == dealer:
		r.finish(OutcomePush, r.wager)
	default:
		r.finish(OutcomeLoss, 0)
	}

	return nil
}

func (r *round) finish(o Outcome, payout int64) {
	r.outcome = o
	r.payout = payout
	r.state = StateSettled
}
