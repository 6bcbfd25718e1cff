package slots

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fastprodman/wagerengine/internal/outcome"
)

//go:embed paytable.json
var defaultPaytable []byte

type Symbol struct {
	Name       string `json:"name"`
	Weight     int    `json:"weight"`
	Multiplier int64  `json:"multiplier"`
}

// Paytable is the auditable odds and payout data for the machine. The
// jackpot symbol's multiplier is ignored: a full line of it pays the pool.
type Paytable struct {
	Reels             int      `json:"reels"`
	JackpotSymbol     string   `json:"jackpotSymbol"`
	PartialMultiplier int64    `json:"partialMultiplier"`
	Symbols           []Symbol `json:"symbols"`
}

// DefaultPaytable returns the paytable compiled into the binary.
func DefaultPaytable() Paytable {
	p, err := ParsePaytable(defaultPaytable)
	if err != nil {
		panic(fmt.Sprintf("embedded paytable: %v", err))
	}

	return p
}

// LoadPaytable reads a paytable file, or returns the default when path is empty.
func LoadPaytable(path string) (Paytable, error) {
	if path == "" {
		return DefaultPaytable(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Paytable{}, fmt.Errorf("read paytable: %w", err)
	}

	return ParsePaytable(raw)
}

func ParsePaytable(raw []byte) (Paytable, error) {
	var p Paytable

	err := json.Unmarshal(raw, &p)
	if err != nil {
		return Paytable{}, fmt.Errorf("decode paytable: %w", err)
	}

	err = p.Validate()
	if err != nil {
		return Paytable{}, err
	}

	return p, nil
}

func (p Paytable) Validate() error {
	if p.Reels < 2 {
		return errors.New("paytable: need at least 2 reels")
	}

	if p.PartialMultiplier < 0 {
		return errors.New("paytable: negative partial multiplier")
	}

	found := false

	for _, s := range p.Symbols {
		if s.Multiplier < 0 {
			return fmt.Errorf("paytable: symbol %q has negative multiplier", s.Name)
		}

		if s.Name == p.JackpotSymbol {
			found = true
		}
	}

	if !found {
		return fmt.Errorf("paytable: jackpot symbol %q is not on the reels", p.JackpotSymbol)
	}

	_, err := p.reelTable()

	return err
}

func (p Paytable) reelTable() (outcome.ReelTable, error) {
	weighted := make([]outcome.WeightedSymbol, 0, len(p.Symbols))
	for _, s := range p.Symbols {
		weighted = append(weighted, outcome.WeightedSymbol{Name: s.Name, Weight: s.Weight})
	}

	return outcome.NewReelTable(weighted)
}

func (p Paytable) multiplier(name string) int64 {
	for _, s := range p.Symbols {
		if s.Name == name {
			return s.Multiplier
		}
	}

	return 0
}
