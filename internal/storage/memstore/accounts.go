package memstore

import (
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

const defaultListLimit = 20

var _ account.IAccountWriter = (*accountWriter)(nil)

type accountWriter struct {
	*view
}

func (w *accountWriter) FindByID(_ context.Context, userID string, id uuid.UUID) (*account.Account, error) {
	if err := w.check("FindByID"); err != nil {
		return nil, err
	}
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	a, ok := w.store.accounts[id]
	if !ok || a.UserID != userID {
		return nil, account.ErrNotFound
	}
	return &a, nil
}

func (w *accountWriter) List(_ context.Context, filter *account.AccountFilter) (*account.AccountListResult, error) {
	if err := w.check("List"); err != nil {
		return nil, err
	}
	limit := defaultListLimit
	offset := 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		offset = filter.Offset
	}

	w.store.mu.Lock()
	var rows []account.Account
	for _, a := range w.store.accounts {
		if filter == nil || a.UserID == filter.UserID {
			rows = append(rows, a)
		}
	}
	w.store.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].IsDefault != rows[j].IsDefault {
			return rows[i].IsDefault
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})

	if offset >= len(rows) {
		return &account.AccountListResult{}, nil
	}
	rows = rows[offset:]

	var nextCursor *account.AccountCursor
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &account.AccountCursor{Position: offset + limit, Limit: limit}
	}
	result := make([]*account.Account, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return &account.AccountListResult{Accounts: result, NextCursor: nextCursor}, nil
}

func (w *accountWriter) CountForUser(_ context.Context, userID string) (int64, error) {
	if err := w.check("CountForUser"); err != nil {
		return 0, err
	}
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	var n int64
	for _, a := range w.store.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (w *accountWriter) ClearDefault(_ context.Context, userID string) error {
	if err := w.check("ClearDefault"); err != nil {
		return err
	}
	w.tx.stage(func() {
		for id, a := range w.store.accounts {
			if a.UserID == userID && a.IsDefault {
				a.IsDefault = false
				w.store.accounts[id] = a
			}
		}
	})
	return nil
}

func (w *accountWriter) Create(_ context.Context, create *account.AccountCreate) (uuid.UUID, error) {
	if err := w.check("Create"); err != nil {
		return uuid.Nil, err
	}
	id := uuid.Must(uuid.NewV4())
	now := w.store.clock()
	a := account.Account{
		ID:        id,
		UserID:    create.UserID,
		Name:      create.Name,
		Type:      create.Type,
		Balance:   create.Balance.Round(sqlconfig.MoneyScale),
		IsDefault: create.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.tx.stage(func() {
		w.store.accounts[id] = a
	})
	return id, nil
}

func (w *accountWriter) IncrementBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if err := w.check("IncrementBalance"); err != nil {
		return err
	}
	w.store.mu.Lock()
	_, ok := w.store.accounts[id]
	w.store.mu.Unlock()
	if !ok {
		return account.ErrNotFound
	}
	w.tx.stage(func() {
		a := w.store.accounts[id]
		a.Balance = a.Balance.Add(delta).Round(sqlconfig.MoneyScale)
		w.store.accounts[id] = a
	})
	return nil
}
