package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"expensetracker/internal/models"
)

// preferenceStore persists per-user settings with GORM.
type preferenceStore struct {
	db *gorm.DB
}

// NewPreferenceStore creates a new PreferenceStore.
func NewPreferenceStore(db *gorm.DB) PreferenceStore {
	return &preferenceStore{db: db}
}

// Get returns the stored value, or false when the user never set it.
func (s *preferenceStore) Get(ctx context.Context, userID, name string) (string, bool, error) {
	var pref models.Preference
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, collaboratorError(err)
	}
	return pref.Value, true, nil
}

// Set upserts a value.
func (s *preferenceStore) Set(ctx context.Context, userID, name, value string) error {
	pref := models.Preference{
		UserID:    userID,
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return collaboratorError(err)
	}
	return nil
}
