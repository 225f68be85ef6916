package retry

import (
	"testing"
	"time"
)

func TestExponentialCeiling(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},
		{40, 60 * time.Second},
	}
	for _, tt := range tests {
		got := ExponentialCeiling(tt.attempt, DefaultMinWait, DefaultMaxWait)
		if got != tt.want {
			t.Errorf("ExponentialCeiling(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialCeiling_respectsMinimum(t *testing.T) {
	if got := ExponentialCeiling(1, 5*time.Second, time.Minute); got != 5*time.Second {
		t.Errorf("got %v, want 5s", got)
	}
}

func TestRandomExponential_bounds(t *testing.T) {
	low := RandomExponential(DefaultMinWait, DefaultMaxWait, func() float64 { return 0 })
	high := RandomExponential(DefaultMinWait, DefaultMaxWait, func() float64 { return 0.999999 })
	for attempt := 1; attempt <= 10; attempt++ {
		ceiling := ExponentialCeiling(attempt, DefaultMinWait, DefaultMaxWait)
		if got := low(attempt); got != DefaultMinWait {
			t.Errorf("attempt %d low = %v, want %v", attempt, got, DefaultMinWait)
		}
		got := high(attempt)
		if got > ceiling || got < DefaultMinWait {
			t.Errorf("attempt %d high = %v, want within [1s, %v]", attempt, got, ceiling)
		}
		if ceiling > DefaultMinWait && got <= DefaultMinWait {
			t.Errorf("attempt %d high = %v should grow toward %v", attempt, got, ceiling)
		}
	}
}

func TestRandomExponential_defaultSource(t *testing.T) {
	b := RandomExponential(DefaultMinWait, DefaultMaxWait, nil)
	for i := 0; i < 100; i++ {
		w := b(6)
		if w < DefaultMinWait || w > 32*time.Second {
			t.Fatalf("wait %v outside [1s, 32s]", w)
		}
	}
}
