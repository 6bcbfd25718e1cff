package outcome

import (
	"fmt"
	"strings"
)

type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

func Flip(src Source) Side {
	if src.IntN(2) == 0 {
		return Heads
	}

	return Tails
}

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Heads:
		return Heads, nil
	case Tails:
		return Tails, nil
	default:
		return "", fmt.Errorf("invalid coin side %q", s)
	}
}
