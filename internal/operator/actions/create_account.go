package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var ErrInvalidAccount = errors.New("invalid account")

// CreateAccount creates an account for UserID. The user's first account is
// always the default one; creating another default account clears the flag on
// the previous default in the same transaction.
type CreateAccount struct {
	UserID    string
	Name      string
	Type      account.AccountType
	Balance   decimal.Decimal
	IsDefault bool

	// CreatedID and MadeDefault are set by Perform.
	CreatedID   uuid.UUID
	MadeDefault bool

	IAction
}

func (c *CreateAccount) validate() error {
	switch {
	case c.UserID == "":
		return fmt.Errorf("%w: user is required", ErrInvalidAccount)
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidAccount)
	case !sqlconfig.FitsMoneyScale(c.Balance):
		return fmt.Errorf("%w: balance %s has more than %d decimal places", ErrInvalidAccount, c.Balance, sqlconfig.MoneyScale)
	}
	return nil
}

func (c *CreateAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := c.validate(); err != nil {
		return err
	}

	existing, err := writer.Account.CountForUser(ctx, c.UserID)
	if err != nil {
		return err
	}

	isDefault := existing == 0 || c.IsDefault
	if isDefault && existing > 0 {
		if err := writer.Account.ClearDefault(ctx, c.UserID); err != nil {
			return err
		}
	}

	id, err := writer.Account.Create(ctx, &account.AccountCreate{
		UserID:    c.UserID,
		Name:      c.Name,
		Type:      c.Type,
		Balance:   c.Balance,
		IsDefault: isDefault,
	})
	if err != nil {
		return err
	}

	c.CreatedID = id
	c.MadeDefault = isDefault
	return nil
}
