package store

import (
	"time"

	"gorm.io/gorm"

	"SignalSentry/internal/model"
)

// CreateTrade records a newly opened trade.
func (s *Store) CreateTrade(t *model.Trade) error {
	return s.db.Create(t).Error
}

// OpenTrades returns every trade still in the open state.
func (s *Store) OpenTrades() ([]model.Trade, error) {
	var trades []model.Trade
	err := s.db.Where("status = ?", model.TradeStatusOpen).Find(&trades).Error
	return trades, err
}

// OpenTradeBySymbol returns the user's open trade for a symbol, or nil.
func (s *Store) OpenTradeBySymbol(userID uint, symbol string) (*model.Trade, error) {
	var trades []model.Trade
	err := s.db.
		Where("user_id = ? AND symbol = ? AND status = ?", userID, symbol, model.TradeStatusOpen).
		Limit(1).
		Find(&trades).Error
	if err != nil || len(trades) == 0 {
		return nil, err
	}
	return &trades[0], nil
}

// UpdateTrade reloads the trade inside its own transaction, applies fn, and
// commits. One transaction per trade bounds lock scope: a crash mid-sweep
// leaves only the unprocessed remainder untouched.
func (s *Store) UpdateTrade(id uint, fn func(t *model.Trade) error) (*model.Trade, error) {
	var updated model.Trade
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t model.Trade
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		if err := fn(&t); err != nil {
			return err
		}
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetTrade returns the trade row by primary key.
func (s *Store) GetTrade(id uint) (*model.Trade, error) {
	var t model.Trade
	if err := s.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ClosedTradesSince returns trades closed at or after the given instant.
func (s *Store) ClosedTradesSince(since time.Time) ([]model.Trade, error) {
	var trades []model.Trade
	err := s.db.
		Where("status = ? AND close_time >= ?", model.TradeStatusClosed, since).
		Find(&trades).Error
	return trades, err
}
