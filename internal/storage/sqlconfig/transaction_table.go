package sqlconfig

import (
	"time"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// TransactionsTable is the transactions table name.
const TransactionsTable = "transactions"

const (
	TransactionColumnID                = "id"
	TransactionColumnUserID            = "user_id"
	TransactionColumnAccountID         = "account_id"
	TransactionColumnType              = "type"
	TransactionColumnAmount            = "amount"
	TransactionColumnDescription       = "description"
	TransactionColumnDate              = "date"
	TransactionColumnCategory          = "category"
	TransactionColumnIsRecurring       = "is_recurring"
	TransactionColumnRecurringInterval = "recurring_interval"
	TransactionColumnNextRecurringDate = "next_recurring_date"
	TransactionColumnLastProcessed     = "last_processed"
	TransactionColumnStatus            = "status"
	TransactionColumnCreatedAt         = "created_at"
	TransactionColumnUpdatedAt         = "updated_at"
)

// TransactionColumns lists the columns selected for a TransactionRow.
var TransactionColumns = []any{
	TransactionColumnID,
	TransactionColumnUserID,
	TransactionColumnAccountID,
	TransactionColumnType,
	TransactionColumnAmount,
	TransactionColumnDescription,
	TransactionColumnDate,
	TransactionColumnCategory,
	TransactionColumnIsRecurring,
	TransactionColumnRecurringInterval,
	TransactionColumnNextRecurringDate,
	TransactionColumnLastProcessed,
	TransactionColumnStatus,
	TransactionColumnCreatedAt,
	TransactionColumnUpdatedAt,
}

// TransactionRow is one row of the transactions table. The schedule columns
// are NULL for rows that are not recurring.
type TransactionRow struct {
	ID                uuid.UUID           `db:"id"`
	UserID            string              `db:"user_id"`
	AccountID         uuid.UUID           `db:"account_id"`
	Type              string              `db:"type"`
	Amount            decimal.Decimal     `db:"amount"`
	Description       string              `db:"description"`
	Date              time.Time           `db:"date"`
	Category          string              `db:"category"`
	IsRecurring       bool                `db:"is_recurring"`
	RecurringInterval null.Val[string]    `db:"recurring_interval"`
	NextRecurringDate null.Val[time.Time] `db:"next_recurring_date"`
	LastProcessed     null.Val[time.Time] `db:"last_processed"`
	Status            string              `db:"status"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}
