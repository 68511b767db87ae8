package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

// CreateTransaction records a completed transaction and applies it to the
// account balance. A recurring transaction also becomes the template and
// schedule for its future realized instances.
type CreateTransaction struct {
	UserID      string
	AccountID   uuid.UUID
	Type        transaction.Type
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Category    string
	IsRecurring bool
	Interval    recurrence.Interval

	CreatedID uuid.UUID

	IAction
}

func (t *CreateTransaction) validate() error {
	switch {
	case t.UserID == "":
		return fmt.Errorf("%w: user is required", ErrInvalidTransaction)
	case t.Type != transaction.TypeIncome && t.Type != transaction.TypeExpense:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	case t.Amount.IsNegative():
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTransaction)
	case !sqlconfig.FitsMoneyScale(t.Amount):
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidTransaction, t.Amount, sqlconfig.MoneyScale)
	case t.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidTransaction)
	case t.IsRecurring && !t.Interval.Valid():
		return fmt.Errorf("%w: recurring interval is required for recurring transactions", ErrInvalidTransaction)
	case !t.IsRecurring && t.Interval != "":
		return fmt.Errorf("%w: interval set on a non-recurring transaction", ErrInvalidTransaction)
	}
	return nil
}

func (t *CreateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := t.validate(); err != nil {
		return err
	}

	acc, err := writer.Account.FindByID(ctx, t.UserID, t.AccountID)
	if err != nil {
		return err
	}

	date := t.Date
	if date.IsZero() {
		date = time.Now()
	}

	var schedule recurrence.Schedule
	if t.IsRecurring {
		schedule, err = recurrence.Initial(t.Interval, date)
		if err != nil {
			return err
		}
	}

	id, err := writer.Transaction.Insert(ctx, &transaction.TransactionCreate{
		UserID:      t.UserID,
		AccountID:   acc.ID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        omit.From(date),
		Category:    t.Category,
		IsRecurring: t.IsRecurring,
		Schedule:    schedule,
		Status:      transaction.StatusCompleted,
	})
	if err != nil {
		return err
	}

	if err := writer.Account.IncrementBalance(ctx, acc.ID, t.Type.BalanceDelta(t.Amount)); err != nil {
		return err
	}

	t.CreatedID = id
	return nil
}
