// Package randutil builds math/rand/v2 generators from a single seed.
package randutil

import rand "math/rand/v2"

// New returns a PCG-backed generator for the given seed. rand.NewPCG
// wants two 64-bit words, so the seed is pushed through a SplitMix64
// step twice, the first output feeding the second. The mixing also
// launders low-entropy seeds such as small per-player offsets.
func New(seed int64) *rand.Rand {
	hi := splitmix64(uint64(seed))
	lo := splitmix64(hi)
	return rand.New(rand.NewPCG(hi, lo))
}

// splitmix64 is one step of the SplitMix64 sequence, published constants.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
