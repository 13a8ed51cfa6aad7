package engine

import "math/rand"

// RNG is the battle's only source of randomness. It counts draws so a
// report can show how far into the seed's stream a battle got.
type RNG struct {
	seed  int64
	src   *rand.Rand
	draws int64
}

// NewRNG seeds a fresh stream.
func NewRNG(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

func (r *RNG) intn(n int) int {
	r.draws++
	return r.src.Intn(n)
}

// Pick returns an index in [0, n). A choice of one or none draws nothing.
func (r *RNG) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return r.intn(n)
}

// WeightedSelect returns index i with probability weights[i]/sum. Weights
// must be positive.
func (r *RNG) WeightedSelect(weights []int) int {
	sum := 0
	for _, w := range weights {
		sum += w
	}
	roll := r.intn(sum)
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

// Seed is the seed the stream started from.
func (r *RNG) Seed() int64 { return r.seed }

// Position is the number of draws taken so far.
func (r *RNG) Position() int64 { return r.draws }
