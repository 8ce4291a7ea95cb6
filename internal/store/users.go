package store

import (
	"errors"

	"gorm.io/gorm"

	"SignalSentry/internal/model"
)

// UserInfo carries the optional profile fields from a Telegram update.
type UserInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// GetOrCreateUser looks a user up by Telegram id, creating the row on first
// contact.
func (s *Store) GetOrCreateUser(telegramID string, info UserInfo) (*model.User, error) {
	var user model.User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user = model.User{
		TelegramID: telegramID,
		Username:   info.Username,
		FirstName:  info.FirstName,
		LastName:   info.LastName,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByTelegramID returns the user or nil when unknown.
func (s *Store) GetUserByTelegramID(telegramID string) (*model.User, error) {
	var user model.User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser returns the user row by primary key.
func (s *Store) GetUser(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
