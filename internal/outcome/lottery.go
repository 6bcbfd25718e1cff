package outcome

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidNumbers = errors.New("invalid lottery numbers")

// DrawNumbers picks count unique integers from [1, highest] without replacement
// using a partial Fisher-Yates over the candidate range. Result is sorted.
func DrawNumbers(src Source, count, highest int) ([]int, error) {
	if count <= 0 || highest < count {
		return nil, fmt.Errorf("draw %d of %d: %w", count, highest, ErrInvalidNumbers)
	}

	pool := make([]int, highest)
	for i := range pool {
		pool[i] = i + 1
	}

	for i := range count {
		j := i + src.IntN(highest-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	out := append([]int(nil), pool[:count]...)
	sort.Ints(out)

	return out, nil
}

// ValidateNumbers checks a ticket pick: exact count, unique, within [1, highest].
// It returns the numbers sorted.
func ValidateNumbers(nums []int, count, highest int) ([]int, error) {
	if len(nums) != count {
		return nil, fmt.Errorf("want %d numbers, got %d: %w", count, len(nums), ErrInvalidNumbers)
	}

	seen := make(map[int]struct{}, len(nums))

	for _, n := range nums {
		if n < 1 || n > highest {
			return nil, fmt.Errorf("number %d outside 1..%d: %w", n, highest, ErrInvalidNumbers)
		}

		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("number %d repeated: %w", n, ErrInvalidNumbers)
		}

		seen[n] = struct{}{}
	}

	out := append([]int(nil), nums...)
	sort.Ints(out)

	return out, nil
}

// CountMatches counts ticket numbers present in the winning set.
func CountMatches(ticket, winning []int) int {
	set := make(map[int]struct{}, len(winning))
	for _, n := range winning {
		set[n] = struct{}{}
	}

	matches := 0

	for _, n := range ticket {
		if _, ok := set[n]; ok {
			matches++
		}
	}

	return matches
}
