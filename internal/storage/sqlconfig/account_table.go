package sqlconfig

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// AccountsTable is the accounts table name.
const AccountsTable = "accounts"

const (
	AccountColumnID        = "id"
	AccountColumnUserID    = "user_id"
	AccountColumnName      = "name"
	AccountColumnType      = "type"
	AccountColumnBalance   = "balance"
	AccountColumnIsDefault = "is_default"
	AccountColumnCreatedAt = "created_at"
	AccountColumnUpdatedAt = "updated_at"
)

// AccountColumns lists the columns selected for an AccountRow, in scan order.
var AccountColumns = []any{
	AccountColumnID,
	AccountColumnUserID,
	AccountColumnName,
	AccountColumnType,
	AccountColumnBalance,
	AccountColumnIsDefault,
	AccountColumnCreatedAt,
	AccountColumnUpdatedAt,
}

// AccountRow is one row of the accounts table.
type AccountRow struct {
	ID        uuid.UUID       `db:"id"`
	UserID    string          `db:"user_id"`
	Name      string          `db:"name"`
	Type      string          `db:"type"`
	Balance   decimal.Decimal `db:"balance"`
	IsDefault bool            `db:"is_default"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
