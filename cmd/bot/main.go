package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"SignalSentry/internal/collector"
	"SignalSentry/internal/config"
	"SignalSentry/internal/notifier"
	"SignalSentry/internal/payment"
	"SignalSentry/internal/recorder"
	"SignalSentry/internal/scheduler"
	"SignalSentry/internal/server"
	"SignalSentry/internal/store"
	"SignalSentry/internal/tracker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SignalSentry starting...")

	// Load .env then config
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init price feed
	fetcher := collector.NewCoinGeckoFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher)

	// Init domain store
	st, err := store.NewStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	defer st.Close()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	// Init analytics recorder
	var rec recorder.Recorder
	if cfg.Database.AnalyticsPath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.AnalyticsPath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init payments
	pay := payment.NewNowPaymentsClient(cfg.Payments.BaseURL, cfg.Payments.APIKey,
		cfg.Payments.IPNSecret, cfg.Payments.CallbackURL, cfg.Proxy)

	// Init tracker and scheduler
	tr := tracker.NewTracker(st, fetcher, tn, rec)
	sched := scheduler.NewScheduler(st, tr, tn)
	if err := sched.Register(cfg.Schedule.TickCron, cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Init HTTP server for the webhooks
	srv := server.New(st, col, tr, sched, tn, pay, rec, cfg.DataSource.Symbols, cfg.Plans)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}
	go func() {
		log.Printf("[INFO] listening on :%d", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Optional: run a tick immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing tick now")
		go sched.Tick()
	}

	log.Println("[INFO] SignalSentry is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] SignalSentry stopped")
}
