package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"SignalSentry/internal/model"
)

// ActiveSubscriptions returns every subscription entitling the user at now.
func (s *Store) ActiveSubscriptions(userID uint, now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := s.db.
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, model.SubStatusActive, now, now).
		Find(&subs).Error
	return subs, err
}

// ActiveSubscriptionByStrategy returns the active subscription for one
// (user, strategy) pair, or nil. There is at most one by construction:
// activation always checks here first.
func (s *Store) ActiveSubscriptionByStrategy(userID uint, strategy string, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.
		Where("user_id = ? AND strategy = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, strategy, model.SubStatusActive, now, now).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// HasActiveSubscription reports whether the user is entitled to the strategy
// at now.
func (s *Store) HasActiveSubscription(userID uint, strategy string, now time.Time) (bool, error) {
	sub, err := s.ActiveSubscriptionByStrategy(userID, strategy, now)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// CreateSubscription records a new subscription row.
func (s *Store) CreateSubscription(sub *model.Subscription) error {
	return s.db.Create(sub).Error
}

// ExpireSubscriptions lazily flips every active subscription whose window
// has passed. Idempotent: a second run matches nothing.
func (s *Store) ExpireSubscriptions(now time.Time) (int64, error) {
	res := s.db.Model(&model.Subscription{}).
		Where("status = ? AND end_date < ?", model.SubStatusActive, now).
		Update("status", model.SubStatusExpired)
	return res.RowsAffected, res.Error
}

// CancelSubscription immediately expires the user's active subscription for
// the strategy. Returns false when there was nothing to cancel.
func (s *Store) CancelSubscription(userID uint, strategy string, now time.Time) (bool, error) {
	sub, err := s.ActiveSubscriptionByStrategy(userID, strategy, now)
	if err != nil || sub == nil {
		return false, err
	}
	sub.Status = model.SubStatusExpired
	if err := s.db.Save(sub).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ActiveSubscribers returns the distinct users holding an active
// subscription in any strategy, for the daily broadcast.
func (s *Store) ActiveSubscribers(now time.Time) ([]model.User, error) {
	var users []model.User
	err := s.db.
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.status = ? AND subscriptions.start_date <= ? AND subscriptions.end_date >= ?",
			model.SubStatusActive, now, now).
		Distinct("users.*").
		Find(&users).Error
	return users, err
}
