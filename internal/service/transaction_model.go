package service

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// Transaction represents a transaction in the service layer. NextRecurringDate
// and LastProcessed are only set for recurring transactions.
type Transaction struct {
	ID                uuid.UUID
	UserID            string
	AccountID         uuid.UUID
	Type              string
	Amount            decimal.Decimal
	Description       string
	Date              time.Time
	Category          string
	IsRecurring       bool
	RecurringInterval string
	NextRecurringDate *time.Time
	LastProcessed     *time.Time
	Status            string
	CreatedAt         time.Time
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	AccountID *uuid.UUID
	Type      *string
	Recurring *bool
}

// TransactionCursor identifies a position in a paginated result set
// and carries the limit and maxCreationTime so subsequent pages are consistent.
type TransactionCursor struct {
	Position        int
	Limit           int
	MaxCreationTime time.Time
}

func transactionFromStorage(row *transaction.Transaction) Transaction {
	return Transaction{
		ID:                row.ID,
		UserID:            row.UserID,
		AccountID:         row.AccountID,
		Type:              string(row.Type),
		Amount:            row.Amount,
		Description:       row.Description,
		Date:              row.Date,
		Category:          row.Category,
		IsRecurring:       row.IsRecurring,
		RecurringInterval: string(row.Schedule.Interval),
		NextRecurringDate: row.Schedule.NextRecurringDate,
		LastProcessed:     row.Schedule.LastProcessed,
		Status:            string(row.Status),
		CreatedAt:         row.CreatedAt,
	}
}
