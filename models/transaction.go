package models

import "time"

// TransactionType is either INCOME or EXPENSE.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a ledger entry owned by a single user.
type Transaction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint            `gorm:"index;not null"` // set once at creation
	Type        TransactionType `gorm:"size:16;not null"`
	Category    string          `gorm:"size:255;not null;index"`
	Amount      float64         `gorm:"not null"`
	Description string          `gorm:"size:1024"`
	Date        string          `gorm:"size:10;not null;index"` // DD-MM-YYYY, kept as text
	Image       *string         `gorm:"size:255"`               // attachment reference
}
