package recorder

// Trade event types written to the analytics database.
const (
	EventOpen = "OPEN"
	EventTP1  = "TP1"
	EventWin  = "WIN"
	EventLoss = "LOSS"
)

// SignalEvaluation is one evaluator run and its evidence.
type SignalEvaluation struct {
	Symbol       string
	Fires        bool
	MAShort      float64
	MALong       float64
	Support      float64
	Resistance   float64
	Fib50        float64
	Fib618       float64
	EntryZone    float64
	CurrentPrice float64
}

// TradeEvent records a trade lifecycle transition.
type TradeEvent struct {
	TradeID   uint
	Symbol    string
	EventType string
	Price     float64
}

// Recorder persists historical data for analysis. It sits beside the domain
// store and must never block or fail a state transition.
type Recorder interface {
	RecordEvaluation(eval *SignalEvaluation) error
	RecordTradeEvent(evt *TradeEvent) error
	Close() error
}
