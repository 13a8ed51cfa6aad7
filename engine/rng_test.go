package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_SameSeedSameSequence(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Pick(7), b.Pick(7), "pick %d diverged", i)
	}
}

func TestRNG_PickRange(t *testing.T) {
	rng := NewRNG(99)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		p := rng.Pick(4)
		require.True(t, p >= 0 && p <= 3, "Pick(4) out of range: %d", p)
		seen[p] = true
	}
	assert.Len(t, seen, 4, "every index should be picked")
}

func TestRNG_PickSingleDoesNotAdvance(t *testing.T) {
	rng := NewRNG(1)
	assert.Equal(t, 0, rng.Pick(1))
	assert.Equal(t, 0, rng.Pick(0))
	assert.Equal(t, int64(0), rng.Position())
}

func TestRNG_WeightedSelect_SkewsTowardHeavy(t *testing.T) {
	rng := NewRNG(12345)
	counts := [2]int{}
	for i := 0; i < 4000; i++ {
		counts[rng.WeightedSelect([]int{90, 10})]++
	}
	assert.Greater(t, counts[0], 3300)
	assert.Greater(t, counts[1], 200)
}

func TestRNG_PositionAndSeed(t *testing.T) {
	rng := NewRNG(7)
	rng.Pick(5)
	rng.Pick(3)
	rng.WeightedSelect([]int{1, 1})
	assert.Equal(t, int64(3), rng.Position())
	assert.Equal(t, int64(7), rng.Seed())
}
