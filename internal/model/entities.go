package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription / trade status values. Kept as plain strings in the database
// so the rows stay readable from the sqlite shell.
const (
	SubStatusActive  = "active"
	SubStatusExpired = "expired"

	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"

	TradeResultWin  = "win"
	TradeResultLoss = "loss"
)

// StrategyAdvanced is the single strategy tag both paid plans map to.
const StrategyAdvanced = "strategy_advanced"

// User is a Telegram user known to the bot.
type User struct {
	gorm.Model
	TelegramID string `gorm:"uniqueIndex;not null"`
	Username   string
	FirstName  string
	LastName   string

	Subscriptions []Subscription
}

// Subscription is an entitlement window for one (user, strategy) pair.
// At most one active subscription per pair; enforced by lookup-before-create.
type Subscription struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	Strategy  string `gorm:"not null"`
	StartDate time.Time
	EndDate   time.Time `gorm:"index"`
	Status    string    `gorm:"index;default:active"`
	PaymentID string
	Amount    float64
	Currency  string

	User User
}

// IsActive reports whether the subscription entitles the user at t.
func (s *Subscription) IsActive(t time.Time) bool {
	return s.Status == SubStatusActive && !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// Trade is the mutable trade state entity. CloseTime, ClosePrice and Result
// are set together, exactly once, on the transition to closed. TP1Reached
// only ever flips false to true.
type Trade struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	Strategy   string `gorm:"not null"`
	Symbol     string `gorm:"not null"`
	OpenTime   time.Time
	OpenPrice  float64
	CloseTime  *time.Time
	ClosePrice *float64
	Status     string `gorm:"index;default:open"`
	Result     string
	TP1Reached bool

	User User
}
