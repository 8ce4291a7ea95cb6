package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists evaluations and trade events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_evaluations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT,
			fires         INTEGER,
			ma_short      REAL,
			ma_long       REAL,
			support       REAL,
			resistance    REAL,
			fib_50        REAL,
			fib_618       REAL,
			entry_zone    REAL,
			current_price REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eval_ts ON signal_evaluations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trade_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			trade_id   INTEGER,
			symbol     TEXT,
			event_type TEXT,
			price      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_events_ts ON trade_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(eval *SignalEvaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fires := 0
	if eval.Fires {
		fires = 1
	}
	_, err := r.db.Exec(`INSERT INTO signal_evaluations
		(timestamp, symbol, fires, ma_short, ma_long, support, resistance,
		 fib_50, fib_618, entry_zone, current_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), eval.Symbol, fires, eval.MAShort, eval.MALong,
		eval.Support, eval.Resistance, eval.Fib50, eval.Fib618,
		eval.EntryZone, eval.CurrentPrice,
	)
	return err
}

func (r *SQLiteRecorder) RecordTradeEvent(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trade_events
		(timestamp, trade_id, symbol, event_type, price)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.TradeID, evt.Symbol, evt.EventType, evt.Price,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
