package strategy

import (
	"math"

	"SignalSentry/internal/calculator"
	"SignalSentry/internal/model"
)

// Strategy parameters. Fixed policy, not derived from volatility.
const (
	ShortMAPeriod = 20
	LongMAPeriod  = 50
	RangeWindow   = 50

	// TrendFilterRatio requires the short average to lead the long one by at
	// least 0.5% before any entry is considered.
	TrendFilterRatio = 1.005

	// EntryZoneTolerance allows the price to sit up to 1% above the entry zone.
	EntryZoneTolerance = 1.01

	TakeProfit1Multiplier = 1.04
	TakeProfit2Multiplier = 1.10
	StopLossMultiplier    = 0.95
)

// Evaluate decides whether current conditions justify opening a position.
// Pure and deterministic: the only nondeterminism is the upstream series.
func Evaluate(series *model.PriceSeries) *model.Signal {
	sig := &model.Signal{
		Symbol:       series.Symbol,
		CurrentPrice: series.CurrentPrice,
	}
	if series.Len() < ShortMAPeriod {
		return sig
	}

	closes := series.Closes()
	maShort, err := calculator.CalculateSMA(closes, ShortMAPeriod)
	if err != nil {
		return sig
	}
	sig.MAShort = maShort

	// Less than 50 samples leaves the long average undefined, which fails
	// the trend filter.
	maLong, err := calculator.CalculateSMA(closes, LongMAPeriod)
	if err != nil {
		sig.MALong = math.NaN()
		return sig
	}
	sig.MALong = maLong
	if !(maShort >= maLong*TrendFilterRatio) {
		return sig
	}

	high, low, err := calculator.TrailingRange(series.Bars, RangeWindow)
	if err != nil {
		return sig
	}
	sig.Support = low
	sig.Resistance = high
	sig.Fib50, sig.Fib618 = calculator.FibonacciLevels(high, low)
	sig.EntryZone = math.Max(sig.Support, math.Max(sig.Fib50, sig.Fib618))

	if sig.CurrentPrice <= sig.EntryZone*EntryZoneTolerance && sig.CurrentPrice < sig.Resistance {
		sig.Fires = true
	}
	return sig
}

// ComputeTargets derives the exit levels for a position from its entry price.
func ComputeTargets(entryPrice float64) model.Targets {
	return model.Targets{
		TakeProfit1: entryPrice * TakeProfit1Multiplier,
		TakeProfit2: entryPrice * TakeProfit2Multiplier,
		StopLoss:    entryPrice * StopLossMultiplier,
	}
}
