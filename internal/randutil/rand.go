// Package randutil derives the deterministic rngs used to shuffle decks.
// Two decks built from the same seed deal the same cards in the same
// order, which hand-replay assertions depend on.
package randutil

import rand "math/rand/v2"

// New returns a rand.Rand fully determined by seed. The two PCG state
// words each come from one splitmix64 step, so adjacent seeds do not
// produce correlated shuffles.
func New(seed int64) *rand.Rand {
	state := uint64(seed)
	return rand.New(rand.NewPCG(splitmix64(&state), splitmix64(&state)))
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
