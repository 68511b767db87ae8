package service

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/storage/account"
)

// AccountType represents an account type in the service layer.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// Account represents an account in the service layer.
type Account struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

func accountTypeToStorage(t AccountType) (account.AccountType, error) {
	return account.ParseAccountType(string(t))
}

func accountFromStorage(row *account.Account) Account {
	return Account{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Type:      AccountType(row.Type),
		Balance:   row.Balance,
		IsDefault: row.IsDefault,
		CreatedAt: row.CreatedAt,
	}
}
