package lottery

import (
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
)

type allocation struct {
	matches []int
	payouts []int64
	won     []bool
	paidOut int64
}

// allocate splits pool across tickets. Fixed tier prizes go first, highest
// tier first and in purchase order within a tier, each capped by what is
// left. Full-match tickets then share the rest evenly, rounded down.
func (s *Service) allocate(pool int64, winning []int, tickets []lottery.Ticket) allocation {
	a := allocation{
		matches: make([]int, len(tickets)),
		payouts: make([]int64, len(tickets)),
		won:     make([]bool, len(tickets)),
	}

	var full []int

	for i, t := range tickets {
		a.matches[i] = outcome.CountMatches(t.Numbers, winning)
		if a.matches[i] == s.cfg.Numbers {
			full = append(full, i)
			a.won[i] = true
		}
	}

	left := pool
	counts := s.cfg.PrizeTiers.Counts()

	for k := len(counts) - 1; k >= 0; k-- {
		prize := s.cfg.PrizeTiers[counts[k]]
		if prize <= 0 {
			continue
		}

		for i := range tickets {
			if a.matches[i] != counts[k] {
				continue
			}

			p := min(prize, left)
			a.payouts[i] = p
			a.won[i] = true
			left -= p
		}
	}

	if len(full) > 0 {
		share := left / int64(len(full))

		for _, i := range full {
			a.payouts[i] = share
			left -= share
		}
	}

	a.paidOut = pool - left

	return a
}
