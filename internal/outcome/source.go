// Package outcome produces the randomized results every game settles on:
// card shoes, weighted slot reels, coin flips and lottery number draws.
//
// All generators take an injected Source so production draws from a
// crypto-seeded stream and tests replay a fixed seed.
package outcome

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source yields uniform integers in [0, n). Implementations must be unbiased.
type Source interface {
	IntN(n int) int
}

// ChaChaSource is a goroutine-safe ChaCha8 stream.
type ChaChaSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

var _ Source = (*ChaChaSource)(nil)

// NewCryptoSource seeds a ChaCha8 stream from crypto/rand.
func NewCryptoSource() (*ChaChaSource, error) {
	var seed [32]byte

	_, err := crand.Read(seed[:])
	if err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}

	return NewSeededSource(seed), nil
}

// NewSeededSource returns a deterministic stream for the given seed.
func NewSeededSource(seed [32]byte) *ChaChaSource {
	return &ChaChaSource{r: rand.New(rand.NewChaCha8(seed))}
}

func (s *ChaChaSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.r.IntN(n)
}

// Shuffle permutes items uniformly (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
