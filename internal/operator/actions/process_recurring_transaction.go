package actions

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// Outcome tells what ProcessRecurringTransaction did with its work item.
type Outcome string

const (
	OutcomeFired        Outcome = "fired"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeNotRecurring Outcome = "not_recurring"
	OutcomeNotDue       Outcome = "not_due"
)

// ProcessRecurringTransaction fires one recurring transaction if it is due at
// Now: it inserts the realized instance, applies its amount to the account
// balance and advances the schedule, all in the operator's transaction.
//
// The source row is locked before the due check, so a duplicate delivery that
// runs concurrently waits for this one and then sees the advanced schedule.
type ProcessRecurringTransaction struct {
	TransactionID uuid.UUID
	UserID        string
	Now           time.Time

	Outcome    Outcome
	RealizedID uuid.UUID

	IAction
}

func (p *ProcessRecurringTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	src, err := writer.Transaction.FindByIDForUpdate(ctx, p.UserID, p.TransactionID)
	if errors.Is(err, transaction.ErrNotFound) {
		p.Outcome = OutcomeNotFound
		return nil
	}
	if err != nil {
		return err
	}

	if !src.IsRecurring || src.Status != transaction.StatusCompleted {
		p.Outcome = OutcomeNotRecurring
		return nil
	}
	if !src.Schedule.IsDue(p.Now) {
		p.Outcome = OutcomeNotDue
		return nil
	}

	next, err := src.Schedule.Fire(p.Now)
	if err != nil {
		return err
	}

	realizedID, err := writer.Transaction.Insert(ctx, &transaction.TransactionCreate{
		UserID:      src.UserID,
		AccountID:   src.AccountID,
		Type:        src.Type,
		Amount:      src.Amount,
		Description: src.Description + transaction.RecurringSuffix,
		Date:        omit.From(p.Now),
		Category:    src.Category,
		IsRecurring: false,
		Status:      transaction.StatusCompleted,
	})
	if err != nil {
		return err
	}

	if err := writer.Account.IncrementBalance(ctx, src.AccountID, src.Type.BalanceDelta(src.Amount)); err != nil {
		return err
	}

	if err := writer.Transaction.AdvanceSchedule(ctx, src.ID, src.Schedule, next); err != nil {
		return err
	}

	p.Outcome = OutcomeFired
	p.RealizedID = realizedID
	return nil
}
