package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	t.Run("equal ratings are a coin flip", func(t *testing.T) {
		for _, r := range []int64{0, 800, 1000, 1500, 2400} {
			assert.InDelta(t, 0.5, ExpectedScore(r, r), 1e-9)
		}
	})

	t.Run("expectations of both sides sum to one", func(t *testing.T) {
		pairs := [][2]int64{{1000, 1000}, {1200, 1000}, {1000, 1400}, {2400, 800}, {0, 3000}}
		for _, p := range pairs {
			sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
			assert.InDelta(t, 1.0, sum, 1e-9, "pair %v", p)
		}
	})

	t.Run("stronger side is favored", func(t *testing.T) {
		assert.Greater(t, ExpectedScore(1400, 1000), 0.5)
		assert.Less(t, ExpectedScore(1000, 1400), 0.5)
	})

	t.Run("400 point gap is roughly ten to one", func(t *testing.T) {
		assert.InDelta(t, 10.0/11.0, ExpectedScore(1400, 1000), 1e-9)
	})
}

func TestNewRating(t *testing.T) {
	t.Run("win against equal opponent", func(t *testing.T) {
		assert.Equal(t, int64(1016), NewRating(32, 1000, 1000, 1))
	})

	t.Run("loss against equal opponent", func(t *testing.T) {
		assert.Equal(t, int64(984), NewRating(32, 1000, 1000, 0))
	})

	t.Run("draw against equal opponent changes nothing", func(t *testing.T) {
		assert.Equal(t, int64(1000), NewRating(32, 1000, 1000, 0.5))
	})

	t.Run("k scales the adjustment", func(t *testing.T) {
		assert.Equal(t, int64(1008), NewRating(16, 1000, 1000, 1))
		assert.Equal(t, int64(1032), NewRating(64, 1000, 1000, 1))
	})

	t.Run("upset win pays more than expected win", func(t *testing.T) {
		upset := NewRating(32, 1000, 1400, 1) - 1000
		expected := NewRating(32, 1400, 1000, 1) - 1400
		assert.Greater(t, upset, expected)
	})

	t.Run("rounds half away from zero", func(t *testing.T) {
		// k=25 against an equal opponent lands exactly on a .5 rating.
		assert.Equal(t, int64(1013), NewRating(25, 1000, 1000, 1))
		assert.Equal(t, int64(988), NewRating(25, 1000, 1000, 0))
	})
}

func TestDelta(t *testing.T) {
	t.Run("matches NewRating", func(t *testing.T) {
		assert.Equal(t, int64(16), Delta(32, 1000, 1000, 1))
		assert.Equal(t, int64(-16), Delta(32, 1000, 1000, 0))
	})

	t.Run("zero sum for equal teams", func(t *testing.T) {
		assert.Equal(t, int64(0), Delta(32, 1200, 1200, 1)+Delta(32, 1200, 1200, 0))
	})
}
