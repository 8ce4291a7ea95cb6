package notifier

import (
	"fmt"
	"strings"
	"time"

	"SignalSentry/internal/model"
)

// FormatTP1Reached announces the 4% partial target. The trade stays open.
func FormatTP1Reached(trade *model.Trade, price float64) string {
	return fmt.Sprintf("✅ %s hit the 4%% target at %.2f, position stays open for the full target.",
		trade.Symbol, price)
}

// FormatFullWin announces a close at the 10% target.
func FormatFullWin(trade *model.Trade, price float64) string {
	return fmt.Sprintf("🏆 %s closed with the full 10%% profit at %.2f.", trade.Symbol, price)
}

// FormatStopLoss announces a close at the stop.
func FormatStopLoss(trade *model.Trade, price float64) string {
	return fmt.Sprintf("⚠️ %s closed at the stop loss, price %.2f.", trade.Symbol, price)
}

// FormatTradeOpened confirms a recorded entry with its targets.
func FormatTradeOpened(trade *model.Trade, targets model.Targets) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 Buy signal for %s\n", trade.Symbol))
	b.WriteString(fmt.Sprintf("Entry: %.2f\n", trade.OpenPrice))
	b.WriteString(fmt.Sprintf("Target 1 (+4%%): %.2f\n", targets.TakeProfit1))
	b.WriteString(fmt.Sprintf("Target 2 (+10%%): %.2f\n", targets.TakeProfit2))
	b.WriteString(fmt.Sprintf("Stop loss (-5%%): %.2f", targets.StopLoss))
	return b.String()
}

// DailyStats aggregates the trades closed since the UTC day start.
type DailyStats struct {
	Wins     int
	Losses   int
	Total    int
	WinRate  float64
	LossRate float64
}

// FormatDailyReport renders the daily aggregate broadcast.
func FormatDailyReport(stats DailyStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Daily trade report | %s\n", time.Now().UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("✅ Winning trades: %d\n", stats.Wins))
	b.WriteString(fmt.Sprintf("❌ Losing trades: %d\n", stats.Losses))
	b.WriteString(fmt.Sprintf("📈 Win rate: %.2f%%\n", stats.WinRate))
	b.WriteString(fmt.Sprintf("📉 Loss rate: %.2f%%", stats.LossRate))
	return b.String()
}

// FormatSubscriptionStatus lists the user's active subscriptions.
func FormatSubscriptionStatus(subs []model.Subscription) string {
	if len(subs) == 0 {
		return "🚫 You have no active subscriptions."
	}
	msgs := make([]string, 0, len(subs))
	for _, sub := range subs {
		msgs = append(msgs, fmt.Sprintf("Strategy %s:\nFrom: %s\nTo: %s\nStatus: %s",
			sub.Strategy,
			sub.StartDate.Format("2006-01-02"),
			sub.EndDate.Format("2006-01-02"),
			sub.Status))
	}
	return strings.Join(msgs, "\n\n")
}

// FormatActivation confirms a paid subscription.
func FormatActivation(endDate time.Time) string {
	return fmt.Sprintf("✅ Your subscription is active until %s.", endDate.Format("2006-01-02"))
}
