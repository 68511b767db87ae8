package operator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/memstore"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

type funcAction struct {
	fn func(ctx context.Context, w *storage.Writer) error
	actions.IAction
}

func (f *funcAction) Perform(ctx context.Context, w *storage.Writer) error {
	return f.fn(ctx, w)
}

func startDelegator(t *testing.T, store *memstore.Store, workers int) *OperatorDelegator {
	t.Helper()
	d := NewOperatorDelegator(store, workers)
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func TestProcess_CommitsOnSuccess(t *testing.T) {
	store := memstore.New()
	d := startDelegator(t, store, 1)

	action := &actions.CreateAccount{UserID: "u1", Name: "Main", Type: account.AccountTypeCurrent}
	require.NoError(t, d.Process(context.Background(), action))

	_, ok := store.Account(action.CreatedID)
	assert.True(t, ok)
}

func TestProcess_RollsBackOnError(t *testing.T) {
	store := memstore.New()
	d := startDelegator(t, store, 1)
	boom := errors.New("boom")

	err := d.Process(context.Background(), &funcAction{fn: func(ctx context.Context, w *storage.Writer) error {
		if _, err := w.Account.Create(ctx, &account.AccountCreate{UserID: "u1", Name: "Main"}); err != nil {
			return err
		}
		return boom
	}})

	assert.ErrorIs(t, err, boom)
	list, err := store.Accounts().List(context.Background(), &account.AccountFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, list.Accounts)
}

func TestProcess_CancelledContext(t *testing.T) {
	store := memstore.New()
	d := startDelegator(t, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := d.Process(ctx, &funcAction{fn: func(context.Context, *storage.Writer) error {
		called = true
		return nil
	}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestProcess_AfterStop(t *testing.T) {
	d := NewOperatorDelegator(memstore.New(), 1)
	d.Start()
	d.Stop()

	err := d.Process(context.Background(), &funcAction{fn: func(context.Context, *storage.Writer) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestProcess_ConcurrentDuplicatesFireOnce(t *testing.T) {
	store := memstore.New()
	d := startDelegator(t, store, 8)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	accountID := store.PutAccount(account.Account{
		UserID:  "u1",
		Name:    "Main",
		Type:    account.AccountTypeCurrent,
		Balance: decimal.RequireFromString("1000"),
	})
	schedule, err := recurrence.Initial(recurrence.IntervalMonthly, now.AddDate(0, -1, 0))
	require.NoError(t, err)
	txID := store.PutTransaction(transaction.Transaction{
		UserID:      "u1",
		AccountID:   accountID,
		Type:        transaction.TypeExpense,
		Amount:      decimal.RequireFromString("50"),
		Description: "Gym",
		Category:    "health",
		IsRecurring: true,
		Schedule:    schedule,
	})

	const deliveries = 16
	var wg sync.WaitGroup
	outcomes := make([]actions.Outcome, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := &actions.ProcessRecurringTransaction{TransactionID: txID, UserID: "u1", Now: now}
			assert.NoError(t, d.Process(context.Background(), action))
			outcomes[i] = action.Outcome
		}(i)
	}
	wg.Wait()

	fired := 0
	for _, o := range outcomes {
		if o == actions.OutcomeFired {
			fired++
		} else {
			assert.Equal(t, actions.OutcomeNotDue, o)
		}
	}
	assert.Equal(t, 1, fired)
	assert.Len(t, store.AllTransactions(), 2)

	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("950").Equal(acc.Balance), "balance %s", acc.Balance)
}
