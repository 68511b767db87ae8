package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

var _ transaction.ITransactionWriter = (*transactionWriter)(nil)

type transactionWriter struct {
	*view
}

func (w *transactionWriter) FindByID(_ context.Context, userID string, id uuid.UUID) (*transaction.Transaction, error) {
	if err := w.check("FindByID"); err != nil {
		return nil, err
	}
	return w.find(userID, id)
}

func (w *transactionWriter) FindByIDForUpdate(_ context.Context, userID string, id uuid.UUID) (*transaction.Transaction, error) {
	if err := w.check("FindByIDForUpdate"); err != nil {
		return nil, err
	}
	l := w.store.rowLock(id)
	l.Lock()
	w.tx.locks = append(w.tx.locks, l)
	return w.find(userID, id)
}

func (w *transactionWriter) find(userID string, id uuid.UUID) (*transaction.Transaction, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	t, ok := w.store.transactions[id]
	if !ok || t.UserID != userID {
		return nil, transaction.ErrNotFound
	}
	return &t, nil
}

func (w *transactionWriter) List(_ context.Context, filter *transaction.TransactionFilter) ([]*transaction.Transaction, error) {
	if err := w.check("List"); err != nil {
		return nil, err
	}
	w.store.mu.Lock()
	var rows []transaction.Transaction
	for _, t := range w.store.transactions {
		if filter == nil || matches(t, filter) {
			rows = append(rows, t)
		}
	}
	w.store.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})

	if filter != nil {
		if filter.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[filter.Offset:]
		if filter.Limit > 0 && len(rows) > filter.Limit+1 {
			rows = rows[:filter.Limit+1]
		}
	}
	return pointers(rows), nil
}

func (w *transactionWriter) ListDue(_ context.Context, now time.Time) ([]*transaction.Transaction, error) {
	if err := w.check("ListDue"); err != nil {
		return nil, err
	}
	w.store.mu.Lock()
	var rows []transaction.Transaction
	for _, t := range w.store.transactions {
		if !t.IsRecurring || t.Status != transaction.StatusCompleted {
			continue
		}
		next := t.Schedule.NextRecurringDate
		if t.Schedule.LastProcessed == nil || (next != nil && !next.After(now)) {
			rows = append(rows, t)
		}
	}
	w.store.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	return pointers(rows), nil
}

func (w *transactionWriter) Insert(_ context.Context, create *transaction.TransactionCreate) (uuid.UUID, error) {
	if err := w.check("Insert"); err != nil {
		return uuid.Nil, err
	}
	w.store.mu.Lock()
	acc, ok := w.store.accounts[create.AccountID]
	w.store.mu.Unlock()
	if !ok || acc.UserID != create.UserID {
		return uuid.Nil, fmt.Errorf("memstore: insert transaction: account %s does not belong to %q", create.AccountID, create.UserID)
	}

	now := w.store.clock()
	status := create.Status
	if status == "" {
		status = transaction.StatusCompleted
	}
	t := transaction.Transaction{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      create.UserID,
		AccountID:   create.AccountID,
		Type:        create.Type,
		Amount:      create.Amount.Round(sqlconfig.MoneyScale),
		Description: create.Description,
		Date:        create.Date.GetOr(now),
		Category:    create.Category,
		IsRecurring: create.IsRecurring,
		Schedule:    create.Schedule,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.tx.stage(func() {
		w.store.transactions[t.ID] = t
	})
	return t.ID, nil
}

func (w *transactionWriter) AdvanceSchedule(_ context.Context, id uuid.UUID, prev, next recurrence.Schedule) error {
	if err := w.check("AdvanceSchedule"); err != nil {
		return err
	}
	w.store.mu.Lock()
	current, ok := w.store.transactions[id]
	w.store.mu.Unlock()
	if !ok || !sameInstant(current.Schedule.LastProcessed, prev.LastProcessed) {
		return transaction.ErrScheduleConflict
	}
	w.tx.stage(func() {
		t := w.store.transactions[id]
		t.Schedule.LastProcessed = next.LastProcessed
		t.Schedule.NextRecurringDate = next.NextRecurringDate
		t.UpdatedAt = w.store.clock()
		w.store.transactions[id] = t
	})
	return nil
}

func matches(t transaction.Transaction, f *transaction.TransactionFilter) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.AccountID != nil && t.AccountID != *f.AccountID {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Recurring != nil && t.IsRecurring != *f.Recurring {
		return false
	}
	if f.MaxCreationTime != nil && t.CreatedAt.After(*f.MaxCreationTime) {
		return false
	}
	return true
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func pointers(rows []transaction.Transaction) []*transaction.Transaction {
	out := make([]*transaction.Transaction, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
