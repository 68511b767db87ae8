package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var ErrNotFound = errors.New("account not found")

// Account represents an account record.
type Account struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountFilter specifies filters for listing accounts.
type AccountFilter struct {
	UserID string
	Limit  int
	Offset int
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

// AccountListResult contains a page of accounts and an optional next cursor.
type AccountListResult struct {
	Accounts   []*Account
	NextCursor *AccountCursor
}

// AccountCreate is the input for creating a new account.
type AccountCreate struct {
	UserID    string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
}

// IAccountReader defines the read operations on accounts. Every lookup is
// scoped by owner.
type IAccountReader interface {
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Account, error)
	List(ctx context.Context, filter *AccountFilter) (*AccountListResult, error)
}

// IAccountWriter defines the operations available inside a storage transaction.
// Balances only move through IncrementBalance, which is applied by the database
// relative to the stored value.
type IAccountWriter interface {
	IAccountReader
	CountForUser(ctx context.Context, userID string) (int64, error)
	ClearDefault(ctx context.Context, userID string) error
	Create(ctx context.Context, create *AccountCreate) (uuid.UUID, error)
	IncrementBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
}

type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AccountTypeCurrent, AccountTypeSavings:
		return t, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

func rowToAccount(row sqlconfig.AccountRow) *Account {
	return &Account{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Type:      AccountType(row.Type),
		Balance:   row.Balance,
		IsDefault: row.IsDefault,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
