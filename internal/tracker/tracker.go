package tracker

import (
	"errors"
	"log"
	"sync"
	"time"

	"SignalSentry/internal/collector"
	"SignalSentry/internal/model"
	"SignalSentry/internal/notifier"
	"SignalSentry/internal/recorder"
	"SignalSentry/internal/store"
	"SignalSentry/internal/strategy"
)

// errNoTransition aborts the per-trade transaction when a concurrent pass
// already closed the trade.
var errNoTransition = errors.New("trade already closed")

// tradeEvent is a state transition queued for notification after commit.
type tradeEvent struct {
	kind  string // recorder event kinds
	text  string
	price float64
}

// Tracker owns the lifecycle of open trades: it polls the latest price,
// applies the target formulas and transitions trade state, emitting
// best-effort notifications.
type Tracker struct {
	Store    *store.Store
	Fetcher  collector.Fetcher
	Notifier notifier.Notifier
	Recorder recorder.Recorder

	// pollMu serializes polling passes. A cron tick and a webhook-triggered
	// tick must never interleave on the same trade rows; the later caller
	// skips instead of queueing.
	pollMu sync.Mutex
}

// NewTracker creates a Tracker.
func NewTracker(st *store.Store, fetcher collector.Fetcher, n notifier.Notifier, rec recorder.Recorder) *Tracker {
	return &Tracker{Store: st, Fetcher: fetcher, Notifier: n, Recorder: rec}
}

// PollOpenTrades runs one polling pass over every open trade. A feed failure
// or non-positive price makes that trade's cycle a no-op; one trade's stall
// never rolls back another's committed transition.
func (t *Tracker) PollOpenTrades() {
	if !t.pollMu.TryLock() {
		log.Println("[INFO] poll already in progress, skipping pass")
		return
	}
	defer t.pollMu.Unlock()

	trades, err := t.Store.OpenTrades()
	if err != nil {
		log.Printf("[ERROR] load open trades: %v", err)
		return
	}
	for i := range trades {
		t.pollTrade(&trades[i])
	}
}

func (t *Tracker) pollTrade(trade *model.Trade) {
	price, err := t.Fetcher.FetchCurrentPrice(trade.Symbol)
	if err != nil {
		log.Printf("[WARN] fetch price for %s: %v, skipping trade %d", trade.Symbol, err, trade.ID)
		return
	}
	if price <= 0 {
		log.Printf("[WARN] non-positive price %.4f for %s, skipping trade %d", price, trade.Symbol, trade.ID)
		return
	}

	targets := strategy.ComputeTargets(trade.OpenPrice)
	var events []tradeEvent

	updated, err := t.Store.UpdateTrade(trade.ID, func(tr *model.Trade) error {
		if tr.Status != model.TradeStatusOpen {
			return errNoTransition
		}
		// TP1: partial target. Monotonic flag, does not close the trade.
		if !tr.TP1Reached && price >= targets.TakeProfit1 {
			tr.TP1Reached = true
			events = append(events, tradeEvent{
				kind:  recorder.EventTP1,
				text:  notifier.FormatTP1Reached(tr, price),
				price: price,
			})
		}
		// TP2: full win. Checked independently of TP1, so a price jumping
		// past both thresholds produces two notifications in one pass.
		if price >= targets.TakeProfit2 {
			closeTrade(tr, price, model.TradeResultWin)
			events = append(events, tradeEvent{
				kind:  recorder.EventWin,
				text:  notifier.FormatFullWin(tr, price),
				price: price,
			})
		}
		// Stop loss, only while still open. Running after the take-profit
		// checks is the defined tie-break: a degenerate price crossing both
		// closes as a win.
		if tr.Status == model.TradeStatusOpen && price <= targets.StopLoss {
			closeTrade(tr, price, model.TradeResultLoss)
			events = append(events, tradeEvent{
				kind:  recorder.EventLoss,
				text:  notifier.FormatStopLoss(tr, price),
				price: price,
			})
		}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return
	}
	if err != nil {
		log.Printf("[ERROR] update trade %d: %v", trade.ID, err)
		return
	}
	if len(events) == 0 {
		return
	}

	// Notifications only after the transition is committed; the lifecycle is
	// authoritative over delivery.
	user, err := t.Store.GetUser(updated.UserID)
	if err != nil {
		log.Printf("[ERROR] load user %d for trade %d: %v", updated.UserID, updated.ID, err)
		return
	}
	for _, evt := range events {
		notifier.TrySend(t.Notifier, user.TelegramID, evt.text)
		if err := t.Recorder.RecordTradeEvent(&recorder.TradeEvent{
			TradeID:   updated.ID,
			Symbol:    updated.Symbol,
			EventType: evt.kind,
			Price:     evt.price,
		}); err != nil {
			log.Printf("[ERROR] record trade event: %v", err)
		}
	}
}

func closeTrade(tr *model.Trade, price float64, result string) {
	now := time.Now().UTC()
	tr.Status = model.TradeStatusClosed
	tr.Result = result
	tr.ClosePrice = &price
	tr.CloseTime = &now
}

// OpenTrade records an entry surfaced by the advice path. At most one open
// trade per user and symbol; a repeated request returns the existing one.
func (t *Tracker) OpenTrade(userID uint, strategyTag, symbol string, price float64) (*model.Trade, error) {
	existing, err := t.Store.OpenTradeBySymbol(userID, symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	trade := &model.Trade{
		UserID:    userID,
		Strategy:  strategyTag,
		Symbol:    symbol,
		OpenTime:  time.Now().UTC(),
		OpenPrice: price,
		Status:    model.TradeStatusOpen,
	}
	if err := t.Store.CreateTrade(trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// DailyStats aggregates wins and losses closed since the UTC day start.
func (t *Tracker) DailyStats() (notifier.DailyStats, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	trades, err := t.Store.ClosedTradesSince(dayStart)
	if err != nil {
		return notifier.DailyStats{}, err
	}
	var stats notifier.DailyStats
	for _, tr := range trades {
		switch tr.Result {
		case model.TradeResultWin:
			stats.Wins++
		case model.TradeResultLoss:
			stats.Losses++
		}
	}
	stats.Total = len(trades)
	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total) * 100
		stats.LossRate = float64(stats.Losses) / float64(stats.Total) * 100
	}
	return stats, nil
}

// DailyReportText renders the aggregate report for broadcast.
func (t *Tracker) DailyReportText() (string, error) {
	stats, err := t.DailyStats()
	if err != nil {
		return "", err
	}
	return notifier.FormatDailyReport(stats), nil
}
