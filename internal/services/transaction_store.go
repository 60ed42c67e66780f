package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

// transactionStore persists transactions with GORM.
type transactionStore struct {
	db *gorm.DB
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *gorm.DB) TransactionStore {
	return &transactionStore{db: db}
}

// ListAll returns every transaction owned by userID
func (s *transactionStore) ListAll(ctx context.Context, userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, collaboratorError(err)
	}
	return transactions, nil
}

// Create persists a new transaction and returns it with its assigned ID
func (s *transactionStore) Create(ctx context.Context, userID string, input models.NewTransaction) (*models.Transaction, error) {
	transaction := &models.Transaction{
		UserID:      userID,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		Type:        input.Type,
		Date:        input.Date,
		CreatedAt:   input.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, collaboratorError(err)
	}
	return transaction, nil
}

// DeleteByID removes one of userID's transactions
func (s *transactionStore) DeleteByID(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return collaboratorError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// collaboratorError converts a storage failure into the AppError shown to users.
func collaboratorError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrTimeout, err)
	}
	return apperrors.Wrap(apperrors.ErrPersistence, err)
}
