package outcome

import (
	"fmt"
	"strconv"
	"strings"
)

type Suit byte

const (
	Spades   Suit = 'S'
	Hearts   Suit = 'H'
	Diamonds Suit = 'D'
	Clubs    Suit = 'C'
)

var suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

type Card struct {
	Rank Rank
	Suit Suit
}

// Points is the card's blackjack value with aces counted as 1.
func (c Card) Points() int {
	if c.Rank >= 10 {
		return 10
	}

	return int(c.Rank)
}

func (c Card) String() string {
	var r string

	switch c.Rank {
	case Ace:
		r = "A"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	default:
		r = strconv.Itoa(int(c.Rank))
	}

	return r + string(c.Suit)
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid card %d/%q", c.Rank, c.Suit)
	}

	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// ParseCard reads the "AS", "10H", "QD" form produced by String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("parse card %q: too short", s)
	}

	c := Card{Suit: Suit(s[len(s)-1])}

	switch r := s[:len(s)-1]; r {
	case "A":
		c.Rank = Ace
	case "J":
		c.Rank = Jack
	case "Q":
		c.Rank = Queen
	case "K":
		c.Rank = King
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("parse card %q: bad rank", s)
		}

		c.Rank = Rank(n)
	}

	if !c.valid() {
		return Card{}, fmt.Errorf("parse card %q: out of range", s)
	}

	return c, nil
}

func (c Card) valid() bool {
	if c.Rank < Ace || c.Rank > King {
		return false
	}

	for _, s := range suits {
		if c.Suit == s {
			return true
		}
	}

	return false
}
