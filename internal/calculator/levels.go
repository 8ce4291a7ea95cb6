package calculator

import (
	"errors"
	"math"

	"SignalSentry/internal/model"
)

// TrailingRange scans the most recent `window` bars and returns the max high
// and min low. Uses the whole series when it is shorter than the window.
func TrailingRange(bars []model.OHLCV, window int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// FibonacciLevels returns the 50% and 61.8% retracement levels measured down
// from the resistance of the given high/low range.
func FibonacciLevels(high, low float64) (fib50, fib618 float64) {
	span := high - low
	return high - 0.5*span, high - 0.618*span
}
