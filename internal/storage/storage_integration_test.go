package storage_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/davecgh/go-spew/spew"
	"github.com/gofrs/uuid/v5"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carson-networks/finance-server/internal/operator"
	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
	"github.com/carson-networks/finance-server/migrations"
)

func newPostgresStorage(t *testing.T) *storage.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("starts a postgres container")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("finance"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("testpassword"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	result, err := migrations.Up(db)
	require.NoError(t, err)
	require.Equal(t, uint(2), result.PostMigrationVersion)

	return storage.NewStorageFromDB(db)
}

// write runs fn in one storage transaction and commits it.
func write(t *testing.T, s *storage.Storage, fn func(w *storage.Writer) error) {
	t.Helper()
	w, err := s.Write(context.Background())
	require.NoError(t, err)
	if err := fn(w); err != nil {
		_ = w.Rollback()
		require.NoError(t, err)
	}
	require.NoError(t, w.Commit())
}

func createAccount(t *testing.T, s *storage.Storage, userID string, balance string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	write(t, s, func(w *storage.Writer) error {
		var err error
		id, err = w.Account.Create(context.Background(), &account.AccountCreate{
			UserID:    userID,
			Name:      "Main",
			Type:      account.AccountTypeCurrent,
			Balance:   decimal.RequireFromString(balance),
			IsDefault: true,
		})
		return err
	})
	return id
}

func insertTransaction(t *testing.T, s *storage.Storage, create *transaction.TransactionCreate) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	write(t, s, func(w *storage.Writer) error {
		var err error
		id, err = w.Transaction.Insert(context.Background(), create)
		return err
	})
	return id
}

func recurringCreate(userID string, accountID uuid.UUID, schedule recurrence.Schedule) *transaction.TransactionCreate {
	return &transaction.TransactionCreate{
		UserID:      userID,
		AccountID:   accountID,
		Type:        transaction.TypeExpense,
		Amount:      decimal.RequireFromString("50"),
		Description: "Rent",
		Date:        omit.From(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		Category:    "housing",
		IsRecurring: true,
		Schedule:    schedule,
		Status:      transaction.StatusCompleted,
	}
}

func TestPostgres_Storage(t *testing.T) {
	s := newPostgresStorage(t)
	ctx := context.Background()

	t.Run("IncrementBalance is applied relative to the stored balance", func(t *testing.T) {
		accountID := createAccount(t, s, "inc-user", "100.00")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w, err := s.Write(ctx)
				if !assert.NoError(t, err) {
					return
				}
				if err := w.Account.IncrementBalance(ctx, accountID, decimal.RequireFromString("-2.50")); !assert.NoError(t, err) {
					_ = w.Rollback()
					return
				}
				assert.NoError(t, w.Commit())
			}()
		}
		wg.Wait()

		acc, err := s.Accounts.FindByID(ctx, "inc-user", accountID)
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("50")), spew.Sdump(acc))
	})

	t.Run("ListDue selects never-fired and past-due recurring rows", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		past := now.Add(-time.Hour)
		future := now.Add(24 * time.Hour)
		accountID := createAccount(t, s, "due-user", "0")

		neverFired := insertTransaction(t, s, recurringCreate("due-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalMonthly, NextRecurringDate: &future,
		}))
		pastDue := insertTransaction(t, s, recurringCreate("due-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalMonthly, LastProcessed: &past, NextRecurringDate: &past,
		}))
		dueExactlyNow := insertTransaction(t, s, recurringCreate("due-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalDaily, LastProcessed: &past, NextRecurringDate: &now,
		}))
		notDue := insertTransaction(t, s, recurringCreate("due-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalMonthly, LastProcessed: &past, NextRecurringDate: &future,
		}))
		pending := recurringCreate("due-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalMonthly,
		})
		pending.Status = transaction.StatusPending
		pendingID := insertTransaction(t, s, pending)
		oneOff := insertTransaction(t, s, &transaction.TransactionCreate{
			UserID:    "due-user",
			AccountID: accountID,
			Type:      transaction.TypeIncome,
			Amount:    decimal.RequireFromString("10"),
			Category:  "salary",
			Status:    transaction.StatusCompleted,
		})

		due, err := s.Transactions.ListDue(ctx, now)
		require.NoError(t, err)

		ids := map[uuid.UUID]bool{}
		for _, tx := range due {
			ids[tx.ID] = true
		}
		assert.True(t, ids[neverFired], spew.Sdump(due))
		assert.True(t, ids[pastDue], spew.Sdump(due))
		assert.True(t, ids[dueExactlyNow], spew.Sdump(due))
		assert.False(t, ids[notDue])
		assert.False(t, ids[pendingID])
		assert.False(t, ids[oneOff])
	})

	t.Run("AdvanceSchedule rejects a stale schedule", func(t *testing.T) {
		accountID := createAccount(t, s, "cas-user", "0")
		next := time.Now().UTC().Add(time.Hour)
		schedule := recurrence.Schedule{Interval: recurrence.IntervalWeekly, NextRecurringDate: &next}
		id := insertTransaction(t, s, recurringCreate("cas-user", accountID, schedule))

		firedAt := time.Now().UTC().Truncate(time.Microsecond)
		fired, err := schedule.Fire(firedAt)
		require.NoError(t, err)

		write(t, s, func(w *storage.Writer) error {
			return w.Transaction.AdvanceSchedule(ctx, id, schedule, fired)
		})

		w, err := s.Write(ctx)
		require.NoError(t, err)
		err = w.Transaction.AdvanceSchedule(ctx, id, schedule, fired)
		assert.ErrorIs(t, err, transaction.ErrScheduleConflict)
		require.NoError(t, w.Rollback())

		stored, err := s.Transactions.FindByID(ctx, "cas-user", id)
		require.NoError(t, err)
		require.NotNil(t, stored.Schedule.LastProcessed, spew.Sdump(stored))
		assert.True(t, stored.Schedule.LastProcessed.Equal(firedAt), spew.Sdump(stored))
	})

	t.Run("concurrent duplicate deliveries fire once", func(t *testing.T) {
		accountID := createAccount(t, s, "dup-user", "1000")
		id := insertTransaction(t, s, recurringCreate("dup-user", accountID, recurrence.Schedule{
			Interval: recurrence.IntervalMonthly,
		}))

		delegator := operator.NewOperatorDelegator(s, 8)
		delegator.Start()
		defer delegator.Stop()

		now := time.Now()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fired int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				action := &actions.ProcessRecurringTransaction{TransactionID: id, UserID: "dup-user", Now: now}
				err := delegator.Process(ctx, action)
				if !assert.NoError(t, err) {
					return
				}
				if action.Outcome == actions.OutcomeFired {
					mu.Lock()
					fired++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, fired)

		acc, err := s.Accounts.FindByID(ctx, "dup-user", accountID)
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("950")), spew.Sdump(acc))

		listed, err := s.Transactions.List(ctx, &transaction.TransactionFilter{UserID: "dup-user", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, listed, 2, spew.Sdump(listed))
	})

	t.Run("a second default account is rejected by the schema", func(t *testing.T) {
		createAccount(t, s, "default-user", "0")

		w, err := s.Write(ctx)
		require.NoError(t, err)
		_, err = w.Account.Create(ctx, &account.AccountCreate{
			UserID:    "default-user",
			Name:      "Second",
			Type:      account.AccountTypeSavings,
			IsDefault: true,
		})
		assert.Error(t, err)
		require.NoError(t, w.Rollback())
	})
}
