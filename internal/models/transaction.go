package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"expensetracker/internal/uuid"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Amounts are stored as numeric(18,4): at most four fractional digits and
// fourteen integer digits.
const AmountScale = 4

// MaxAmount is the exclusive upper bound of a transaction amount.
var MaxAmount = decimal.New(1, 14)

// DateLayout is the ISO 8601 calendar date format used for Transaction.Date.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry owned by a user.
// Amount is always a positive magnitude; the direction comes from Type.
type Transaction struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string          `gorm:"type:varchar(36);not null;index" json:"-"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(16);not null" json:"type"`
	Date        string          `gorm:"type:varchar(32);not null" json:"date"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

// BeforeCreate assigns the identifier. IDs exist only once a row is persisted.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// NewTransaction is the user-submitted payload for a transaction that has not
// been persisted yet.
type NewTransaction struct {
	Description string          `json:"description" validate:"required,max=500"`
	Amount      decimal.Decimal `json:"amount" validate:"amount"`
	Type        TransactionType `json:"type" validate:"required,transaction_type"`
	Date        string          `json:"date" validate:"omitempty,iso_date"`
	CreatedAt   time.Time       `json:"-" validate:"-"`
}
