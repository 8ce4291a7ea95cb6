package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"SignalSentry/internal/collector"
	"SignalSentry/internal/notifier"
	"SignalSentry/internal/payment"
	"SignalSentry/internal/recorder"
	"SignalSentry/internal/scheduler"
	"SignalSentry/internal/store"
	"SignalSentry/internal/tracker"
)

// Routes exposed to the outside world.
const (
	TelegramRoute    = "/market-signals-bot/telegram-webhook"
	NowPaymentsRoute = "/market-signals-bot/nowpayments-webhook"
)

// Server hosts the Telegram and NowPayments webhooks plus the bot command
// handling that sits behind them.
type Server struct {
	router    *mux.Router
	store     *store.Store
	collector *collector.Collector
	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler
	notifier  notifier.Notifier
	payments  *payment.NowPaymentsClient
	recorder  recorder.Recorder
	symbols   []string
	plans     map[string]float64
}

// New wires the server and registers its routes.
func New(st *store.Store, col *collector.Collector, tr *tracker.Tracker,
	sched *scheduler.Scheduler, n notifier.Notifier, pay *payment.NowPaymentsClient,
	rec recorder.Recorder, symbols []string, plans map[string]float64) *Server {

	s := &Server{
		router:    mux.NewRouter(),
		store:     st,
		collector: col,
		tracker:   tr,
		scheduler: sched,
		notifier:  n,
		payments:  pay,
		recorder:  rec,
		symbols:   symbols,
		plans:     plans,
	}
	s.router.HandleFunc(TelegramRoute, s.handleTelegramWebhook).Methods("POST")
	s.router.HandleFunc(NowPaymentsRoute, s.handleNowPaymentsWebhook).Methods("POST")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("SignalSentry is running."))
}
