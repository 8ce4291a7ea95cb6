package model

// Signal is the evaluator's decision for one symbol, with the evidence that
// produced it. Computed per evaluation and never persisted.
type Signal struct {
	Symbol       string
	Fires        bool
	MAShort      float64 // 20-period SMA of closes
	MALong       float64 // 50-period SMA of closes, NaN when history is short
	Support      float64
	Resistance   float64
	Fib50        float64
	Fib618       float64
	EntryZone    float64
	CurrentPrice float64
}

// Targets are the exit levels for an opened position, derived from the entry
// price alone. Recomputed on every polling pass; only the multipliers are
// policy.
type Targets struct {
	TakeProfit1 float64 // entry × 1.04
	TakeProfit2 float64 // entry × 1.10
	StopLoss    float64 // entry × 0.95
}
