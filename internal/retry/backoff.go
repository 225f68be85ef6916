package retry

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialCeiling is the upper bound of the jittered wait after attempt:
// 2^(attempt-1) seconds clamped to [minWait, maxWait].
func ExponentialCeiling(attempt int, minWait, maxWait time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := math.Pow(2, float64(attempt-1)) * float64(time.Second)
	if exp > float64(maxWait) {
		return maxWait
	}
	ceiling := time.Duration(exp)
	if ceiling < minWait {
		return minWait
	}
	return ceiling
}

// RandomExponential waits a uniformly random duration in
// [minWait, ExponentialCeiling(attempt, minWait, maxWait)].
// rnd returns values in [0, 1); nil uses math/rand.
func RandomExponential(minWait, maxWait time.Duration, rnd func() float64) Backoff {
	if rnd == nil {
		rnd = rand.Float64
	}
	return func(attempt int) time.Duration {
		ceiling := ExponentialCeiling(attempt, minWait, maxWait)
		return minWait + time.Duration(rnd()*float64(ceiling-minWait))
	}
}
