// Package shuffle randomizes question options and quiz selections.
package shuffle

import (
	"math/rand"
	"time"
)

// Shuffle returns a uniformly random permutation of items using Fisher–Yates.
// The input slice is never modified. A nil rng uses a time-seeded source.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := make([]T, len(items))
	copy(out, items)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sample returns up to n items picked at random, in random order.
func Sample[T any](items []T, n int, rng *rand.Rand) []T {
	shuffled := Shuffle(items, rng)
	if n < 0 {
		n = 0
	}
	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}
