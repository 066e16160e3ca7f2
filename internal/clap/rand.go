package clap

import "math/rand/v2"

// Rand is the randomness a Compositor draws from. *rand.Rand satisfies it.
type Rand interface {
	Perm(n int) []int
	Float64() float64
	Uint64() uint64
}

// NewRand returns a PCG-backed source. Seed 0 seeds from the runtime's
// entropy source, so every run differs.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// uniform draws from [lo, hi].
func uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
