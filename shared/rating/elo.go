// shared/rating/elo.go
package rating

import "math"

// ExpectedScore returns the probability-like expectation for side A against
// side B, 1 / (1 + 10^((b-a)/400)). It is symmetric:
// ExpectedScore(a, b) + ExpectedScore(b, a) == 1 within floating-point error.
func ExpectedScore(ratingA, ratingB int64) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// NewRating returns side A's updated rating after a contest against side B,
// round(a + k*(actualScoreA - ExpectedScore(a, b))).
//
// actualScoreA is conventionally 1 (win), 0 (loss) or 0.5 (draw); the range
// is not validated here, callers constrain it. k is the volatility constant
// and is always passed in, per bracket or per call, never read from package
// state. Rounding is half away from zero (math.Round).
func NewRating(k int, ratingA, ratingB int64, actualScoreA float64) int64 {
	return int64(math.Round(float64(ratingA) + float64(k)*(actualScoreA-ExpectedScore(ratingA, ratingB))))
}

// Delta returns the signed rating change NewRating would apply, which is what
// team settlement distributes equally to every member of a team.
func Delta(k int, ratingA, ratingB int64, actualScoreA float64) int64 {
	return NewRating(k, ratingA, ratingB, actualScoreA) - ratingA
}
