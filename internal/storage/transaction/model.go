package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrScheduleConflict is returned when the stored schedule no longer matches
	// the one the caller read, meaning another writer fired it first.
	ErrScheduleConflict = errors.New("recurring schedule changed concurrently")
)

// RecurringSuffix marks the description of a realized recurring instance.
const RecurringSuffix = " (Recurring)"

type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeIncome, TypeExpense:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// BalanceDelta is the signed change a transaction of this type and amount
// applies to its account.
func (t Type) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	if t == TypeExpense {
		return amount.Neg()
	}
	return amount
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Transaction represents a transaction record. Schedule is only meaningful
// when IsRecurring is set.
type Transaction struct {
	ID          uuid.UUID
	UserID      string
	AccountID   uuid.UUID
	Type        Type
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Category    string
	IsRecurring bool
	Schedule    recurrence.Schedule
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionCreate is the input for creating a new transaction.
type TransactionCreate struct {
	UserID      string
	AccountID   uuid.UUID
	Type        Type
	Amount      decimal.Decimal
	Description string
	Date        omit.Val[time.Time] // defaults to now if unset
	Category    string
	IsRecurring bool
	Schedule    recurrence.Schedule
	Status      Status
}

// TransactionFilter specifies filters for listing transactions.
type TransactionFilter struct {
	UserID          string
	AccountID       *uuid.UUID
	Type            *Type
	Recurring       *bool
	Limit           int
	Offset          int
	MaxCreationTime *time.Time
}

// ITransactionReader defines the read operations on transactions.
type ITransactionReader interface {
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
	// ListDue returns every completed recurring transaction that has never
	// fired or whose next date is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*Transaction, error)
}

// ITransactionWriter defines the operations available inside a storage
// transaction.
type ITransactionWriter interface {
	ITransactionReader
	// FindByIDForUpdate locks the row until the storage transaction ends.
	FindByIDForUpdate(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error)
	Insert(ctx context.Context, create *TransactionCreate) (uuid.UUID, error)
	// AdvanceSchedule stores next, provided the stored last processed time
	// still equals prev's. Otherwise it returns ErrScheduleConflict.
	AdvanceSchedule(ctx context.Context, id uuid.UUID, prev, next recurrence.Schedule) error
}

func rowToTransaction(row sqlconfig.TransactionRow) *Transaction {
	return &Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		AccountID:   row.AccountID,
		Type:        Type(row.Type),
		Amount:      row.Amount,
		Description: row.Description,
		Date:        row.Date,
		Category:    row.Category,
		IsRecurring: row.IsRecurring,
		Schedule: recurrence.Schedule{
			Interval:          recurrence.Interval(row.RecurringInterval.GetOrZero()),
			LastProcessed:     row.LastProcessed.Ptr(),
			NextRecurringDate: row.NextRecurringDate.Ptr(),
		},
		Status:    Status(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func intervalArg(s recurrence.Schedule) null.Val[string] {
	if s.Interval == "" {
		return null.Val[string]{}
	}
	return null.From(string(s.Interval))
}
