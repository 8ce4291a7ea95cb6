package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"SignalSentry/internal/notifier"
	"SignalSentry/internal/store"
	"SignalSentry/internal/tracker"
)

// Scheduler drives the periodic work: the five-minute tick (subscription
// expiry then trade polling) and the once-daily aggregate report. Tick is an
// explicit operation so the webhook handler can invoke the same path on
// inbound traffic. The effective cadence is "every tick interval or any
// inbound message, whichever is sooner".
type Scheduler struct {
	Cron     *cron.Cron
	Store    *store.Store
	Tracker  *tracker.Tracker
	Notifier notifier.Notifier
}

// NewScheduler creates a new Scheduler.
func NewScheduler(st *store.Store, tr *tracker.Tracker, n notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Store:    st,
		Tracker:  tr,
		Notifier: n,
	}
}

// Register registers the tick and daily report cron entries.
func (s *Scheduler) Register(tickCron, dailyCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, s.Tick); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	if _, err := s.Cron.AddFunc(dailyCron, s.DailyReport); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// Tick runs one maintenance pass: lazy subscription expiry, then a polling
// pass over open trades. Safe to call from any goroutine; overlapping poll
// passes are skipped inside the tracker.
func (s *Scheduler) Tick() {
	expired, err := s.Store.ExpireSubscriptions(time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] expire subscriptions: %v", err)
	} else if expired > 0 {
		log.Printf("[INFO] expired %d subscriptions", expired)
	}
	s.Tracker.PollOpenTrades()
}

// DailyReport broadcasts the aggregate trade statistics to every user with
// an active subscription in any strategy.
func (s *Scheduler) DailyReport() {
	log.Println("[INFO] running daily report")
	text, err := s.Tracker.DailyReportText()
	if err != nil {
		log.Printf("[ERROR] build daily report: %v", err)
		return
	}
	users, err := s.Store.ActiveSubscribers(time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] load subscribers: %v", err)
		return
	}
	for _, u := range users {
		notifier.TrySend(s.Notifier, u.TelegramID, text)
	}
	log.Printf("[INFO] daily report sent to %d subscribers", len(users))
}
