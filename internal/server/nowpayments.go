package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"SignalSentry/internal/model"
	"SignalSentry/internal/notifier"
	"SignalSentry/internal/payment"
)

// subscriptionDays is the entitlement window a finished payment buys.
const subscriptionDays = 30

// handleNowPaymentsWebhook processes the IPN callback. A finished payment
// activates a 30-day subscription; everything else is acknowledged and
// ignored.
func (s *Server) handleNowPaymentsWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.payments.VerifySignature(r.Header.Get("x-nowpayments-sig")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload payment.IPNPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if payload.PaymentStatus != payment.PaymentStatusFinished {
		w.Write([]byte("ok"))
		return
	}

	telegramID := payload.TelegramID()
	if telegramID == "" {
		http.Error(w, "telegram_id missing", http.StatusBadRequest)
		return
	}
	user, err := s.store.GetUserByTelegramID(telegramID)
	if err != nil {
		log.Printf("[ERROR] lookup user %s: %v", telegramID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	now := time.Now().UTC()
	existing, err := s.store.ActiveSubscriptionByStrategy(user.ID, model.StrategyAdvanced, now)
	if err != nil {
		log.Printf("[ERROR] lookup subscription for user %d: %v", user.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		w.Write([]byte("subscription already active"))
		return
	}

	endDate := now.AddDate(0, 0, subscriptionDays)
	sub := &model.Subscription{
		UserID:    user.ID,
		Strategy:  model.StrategyAdvanced,
		StartDate: now,
		EndDate:   endDate,
		Status:    model.SubStatusActive,
		PaymentID: payload.PaymentID.String(),
		Amount:    payload.PayAmount,
		Currency:  payload.PayCurrency,
	}
	if err := s.store.CreateSubscription(sub); err != nil {
		log.Printf("[ERROR] create subscription for user %d: %v", user.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] subscription activated for user %d until %s", user.ID, endDate.Format("2006-01-02"))

	notifier.TrySend(s.notifier, user.TelegramID, notifier.FormatActivation(endDate))
	w.Write([]byte("ok"))
}
