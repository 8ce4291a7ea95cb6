package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SignalSentry/internal/model"
	"SignalSentry/internal/notifier"
	"SignalSentry/internal/recorder"
	"SignalSentry/internal/store"
	"SignalSentry/internal/strategy"
)

const helpText = "/subscribe 1 - subscribe to plan 1 ($40)\n" +
	"/subscribe 2 - subscribe to plan 2 ($70)\n" +
	"/status - subscription status\n" +
	"/advice - get recommendations\n" +
	"/cancel 1 - cancel subscription 1\n" +
	"/cancel 2 - cancel subscription 2"

// telegramUpdate is the inbound webhook body. Only the fields the bot reads.
type telegramUpdate struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"from"`
	} `json:"message"`
}

// handleTelegramWebhook runs a maintenance tick, then dispatches the command.
// Ticking on inbound traffic keeps expiry and trade polling fresh between
// cron fires.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Tick()

	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Message == nil {
		w.Write([]byte("ok"))
		return
	}
	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	user, err := s.store.GetOrCreateUser(telegramID, store.UserInfo{
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	})
	if err != nil {
		log.Printf("[ERROR] get or create user %s: %v", telegramID, err)
		w.Write([]byte("ok"))
		return
	}

	activeSubs, err := s.store.ActiveSubscriptions(user.ID, time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] load subscriptions for user %d: %v", user.ID, err)
	}

	s.handleCommand(user, chatID, strings.TrimSpace(msg.Text), activeSubs)
	w.Write([]byte("ok"))
}

func (s *Server) handleCommand(user *model.User, chatID, text string, activeSubs []model.Subscription) {
	switch {
	case text == "/start":
		name := user.FirstName
		reply := fmt.Sprintf("Welcome %s 👋\nThe bot is up and running.\nUse /help to see the commands.", name)
		notifier.TrySend(s.notifier, chatID, strings.TrimSpace(reply))
	case text == "/help":
		notifier.TrySend(s.notifier, chatID, helpText)
	case strings.HasPrefix(text, "/subscribe"):
		s.handleSubscribe(user, chatID, text)
	case text == "/status":
		notifier.TrySend(s.notifier, chatID, notifier.FormatSubscriptionStatus(activeSubs))
	case strings.HasPrefix(text, "/cancel"):
		s.handleCancel(user, chatID, text)
	case text == "/advice":
		if len(activeSubs) == 0 {
			notifier.TrySend(s.notifier, chatID, "🚫 Please subscribe first.")
			return
		}
		s.handleAdvice(user, chatID)
	default:
		if len(activeSubs) == 0 {
			notifier.TrySend(s.notifier, chatID, "🚫 Please subscribe first.\nUse /subscribe to see the plans.")
		} else {
			notifier.TrySend(s.notifier, chatID, "❓ Unknown command, use /help.")
		}
	}
}

func (s *Server) handleSubscribe(user *model.User, chatID, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		notifier.TrySend(s.notifier, chatID, "Please pick a valid plan: /subscribe 1 or /subscribe 2")
		return
	}
	price, ok := s.plans[parts[1]]
	if !ok {
		notifier.TrySend(s.notifier, chatID, "Please pick a valid plan: /subscribe 1 or /subscribe 2")
		return
	}

	existing, err := s.store.ActiveSubscriptionByStrategy(user.ID, model.StrategyAdvanced, time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] lookup subscription for user %d: %v", user.ID, err)
		return
	}
	if existing != nil {
		notifier.TrySend(s.notifier, chatID,
			fmt.Sprintf("🚫 You are already subscribed until %s.", existing.EndDate.Format("2006-01-02")))
		return
	}

	invoiceURL, err := s.payments.CreateInvoice(user.TelegramID, price)
	if err != nil {
		log.Printf("[ERROR] create invoice for user %d: %v", user.ID, err)
		notifier.TrySend(s.notifier, chatID, "Something went wrong creating the payment link.")
		return
	}
	notifier.TrySend(s.notifier, chatID, "Please pay for your subscription here:\n"+invoiceURL)
}

func (s *Server) handleCancel(user *model.User, chatID, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		notifier.TrySend(s.notifier, chatID, "Please pick the subscription to cancel: /cancel 1 or /cancel 2")
		return
	}
	if _, ok := s.plans[parts[1]]; !ok {
		notifier.TrySend(s.notifier, chatID, "Please pick the subscription to cancel: /cancel 1 or /cancel 2")
		return
	}
	cancelled, err := s.store.CancelSubscription(user.ID, model.StrategyAdvanced, time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] cancel subscription for user %d: %v", user.ID, err)
		return
	}
	if !cancelled {
		notifier.TrySend(s.notifier, chatID, "You have no active subscription to cancel.")
		return
	}
	notifier.TrySend(s.notifier, chatID, "Subscription cancelled. Thank you.")
}

// handleAdvice evaluates every configured symbol on demand. A fired signal
// is both replied to and recorded as an open trade for the requesting user,
// so the tracker follows it through TP1/TP2/SL.
func (s *Server) handleAdvice(user *model.User, chatID string) {
	var messages []string
	for _, symbol := range s.symbols {
		series, err := s.collector.CollectSeries(symbol)
		if err != nil {
			log.Printf("[WARN] collect %s: %v, skipping", symbol, err)
			continue
		}
		sig := strategy.Evaluate(series)
		if err := s.recorder.RecordEvaluation(&recorder.SignalEvaluation{
			Symbol:       sig.Symbol,
			Fires:        sig.Fires,
			MAShort:      sig.MAShort,
			MALong:       sig.MALong,
			Support:      sig.Support,
			Resistance:   sig.Resistance,
			Fib50:        sig.Fib50,
			Fib618:       sig.Fib618,
			EntryZone:    sig.EntryZone,
			CurrentPrice: sig.CurrentPrice,
		}); err != nil {
			log.Printf("[ERROR] record evaluation: %v", err)
		}
		if !sig.Fires {
			continue
		}

		trade, err := s.tracker.OpenTrade(user.ID, model.StrategyAdvanced, symbol, sig.CurrentPrice)
		if err != nil {
			log.Printf("[ERROR] open trade for user %d on %s: %v", user.ID, symbol, err)
			messages = append(messages, fmt.Sprintf("📈 Buy signal for %s", symbol))
			continue
		}
		targets := strategy.ComputeTargets(trade.OpenPrice)
		messages = append(messages, notifier.FormatTradeOpened(trade, targets))
		if err := s.recorder.RecordTradeEvent(&recorder.TradeEvent{
			TradeID:   trade.ID,
			Symbol:    trade.Symbol,
			EventType: recorder.EventOpen,
			Price:     trade.OpenPrice,
		}); err != nil {
			log.Printf("[ERROR] record trade open: %v", err)
		}
	}
	if len(messages) == 0 {
		notifier.TrySend(s.notifier, chatID, "📊 No recommendations right now.")
		return
	}
	notifier.TrySend(s.notifier, chatID, strings.Join(messages, "\n\n"))
}
