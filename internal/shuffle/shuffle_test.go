package shuffle

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffleIsPermutation(t *testing.T) {
	in := []string{"A", "B", "C", "D"}
	out := Shuffle(in, rand.New(rand.NewSource(7)))

	assert.ElementsMatch(t, in, out)
	assert.Equal(t, []string{"A", "B", "C", "D"}, in, "input must not be mutated")
}

func TestShuffleEdgeCases(t *testing.T) {
	assert.Empty(t, Shuffle([]int{}, nil))
	assert.Equal(t, []int{42}, Shuffle([]int{42}, nil))
	assert.Empty(t, Shuffle[int](nil, nil))
}

func TestShuffleRoughlyUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := []string{"A", "B", "C"}
	counts := map[string]int{}

	const rounds = 60000
	for i := 0; i < rounds; i++ {
		counts[strings.Join(Shuffle(in, rng), "")]++
	}

	assert.Len(t, counts, 6)
	expected := rounds / 6
	for perm, n := range counts {
		assert.InDelta(t, expected, n, float64(expected)*0.05, "permutation %s", perm)
	}
}

func TestSample(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	rng := rand.New(rand.NewSource(3))

	got := Sample(ids, 10, rng)
	assert.Len(t, got, 10)
	assert.Subset(t, ids, got)

	assert.Len(t, Sample(ids[:4], 10, rng), 4)
	assert.Empty(t, Sample(ids, 0, rng))
	assert.Empty(t, Sample(ids, -1, rng))
}
