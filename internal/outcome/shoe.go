package outcome

import "errors"

var ErrShoeEmpty = errors.New("shoe is empty")

// Shoe holds the undealt cards of one or more shuffled decks.
type Shoe struct {
	cards []Card
}

// NewShoe shuffles decks standard 52-card decks together.
func NewShoe(src Source, decks int) *Shoe {
	if decks < 1 {
		decks = 1
	}

	cards := make([]Card, 0, 52*decks)

	for range decks {
		for _, s := range suits {
			for r := Ace; r <= King; r++ {
				cards = append(cards, Card{Rank: r, Suit: s})
			}
		}
	}

	Shuffle(src, cards)

	return &Shoe{cards: cards}
}

// RestoreShoe rebuilds a shoe from its persisted remaining cards, in order.
func RestoreShoe(cards []Card) *Shoe {
	return &Shoe{cards: append([]Card(nil), cards...)}
}

func (s *Shoe) Draw() (Card, error) {
	if len(s.cards) == 0 {
		return Card{}, ErrShoeEmpty
	}

	c := s.cards[0]
	s.cards = s.cards[1:]

	return c, nil
}

func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Cards returns a copy of the undealt cards in draw order.
func (s *Shoe) Cards() []Card {
	return append([]Card(nil), s.cards...)
}
