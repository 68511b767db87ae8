package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/memstore"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

const testUser = "user_1"

var testNow = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func seedRecurring(t *testing.T, store *memstore.Store, txType transaction.Type, amount string, schedule recurrence.Schedule) (uuid.UUID, uuid.UUID) {
	t.Helper()
	accountID := store.PutAccount(account.Account{
		UserID:    testUser,
		Name:      "Main",
		Type:      account.AccountTypeCurrent,
		Balance:   decimal.RequireFromString("1000"),
		IsDefault: true,
	})
	txID := store.PutTransaction(transaction.Transaction{
		UserID:      testUser,
		AccountID:   accountID,
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Description: "Rent",
		Date:        testNow.AddDate(0, -1, 0),
		Category:    "housing",
		IsRecurring: true,
		Schedule:    schedule,
	})
	return accountID, txID
}

func neverProcessed(interval recurrence.Interval) recurrence.Schedule {
	next := testNow
	return recurrence.Schedule{Interval: interval, NextRecurringDate: &next}
}

func perform(t *testing.T, store *memstore.Store, action IAction) error {
	t.Helper()
	ctx := context.Background()
	writer, err := store.Write(ctx)
	require.NoError(t, err)
	if err := action.Perform(ctx, writer); err != nil {
		require.NoError(t, writer.Rollback())
		return err
	}
	return writer.Commit()
}

// -- ProcessRecurringTransaction tests --

func TestProcessRecurring_ExpenseFires(t *testing.T) {
	store := memstore.New()
	accountID, txID := seedRecurring(t, store, transaction.TypeExpense, "50", neverProcessed(recurrence.IntervalMonthly))

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))

	assert.Equal(t, OutcomeFired, action.Outcome)
	assert.NotEqual(t, uuid.Nil, action.RealizedID)

	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("950").Equal(acc.Balance), "balance %s", acc.Balance)

	src, _ := store.Transaction(txID)
	require.NotNil(t, src.Schedule.LastProcessed)
	require.NotNil(t, src.Schedule.NextRecurringDate)
	assert.True(t, src.Schedule.LastProcessed.Equal(testNow))
	assert.True(t, src.Schedule.NextRecurringDate.Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))

	realized, ok := store.Transaction(action.RealizedID)
	require.True(t, ok)
	assert.Equal(t, "Rent (Recurring)", realized.Description)
	assert.False(t, realized.IsRecurring)
	assert.Equal(t, transaction.StatusCompleted, realized.Status)
	assert.Equal(t, transaction.TypeExpense, realized.Type)
	assert.True(t, realized.Amount.Equal(decimal.RequireFromString("50")))
	assert.True(t, realized.Date.Equal(testNow))
	assert.Equal(t, accountID, realized.AccountID)
	assert.Equal(t, "housing", realized.Category)
}

func TestProcessRecurring_IncomeFires(t *testing.T) {
	store := memstore.New()
	accountID, txID := seedRecurring(t, store, transaction.TypeIncome, "50", neverProcessed(recurrence.IntervalWeekly))

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))

	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("1050").Equal(acc.Balance), "balance %s", acc.Balance)

	src, _ := store.Transaction(txID)
	assert.True(t, src.Schedule.NextRecurringDate.Equal(testNow.AddDate(0, 0, 7)))
}

func TestProcessRecurring_PreviouslyProcessedAndDue(t *testing.T) {
	store := memstore.New()
	last := testNow.AddDate(0, 0, -1)
	next := testNow.Add(-time.Hour)
	_, txID := seedRecurring(t, store, transaction.TypeExpense, "10", recurrence.Schedule{
		Interval:          recurrence.IntervalDaily,
		LastProcessed:     &last,
		NextRecurringDate: &next,
	})

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))
	assert.Equal(t, OutcomeFired, action.Outcome)

	src, _ := store.Transaction(txID)
	assert.True(t, src.Schedule.NextRecurringDate.Equal(testNow.AddDate(0, 0, 1)))
}

func TestProcessRecurring_NotDueIsNoop(t *testing.T) {
	store := memstore.New()
	last := testNow.AddDate(0, 0, -3)
	next := testNow.AddDate(0, 0, 4)
	accountID, txID := seedRecurring(t, store, transaction.TypeExpense, "50", recurrence.Schedule{
		Interval:          recurrence.IntervalWeekly,
		LastProcessed:     &last,
		NextRecurringDate: &next,
	})
	before := store.AllTransactions()

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))

	assert.Equal(t, OutcomeNotDue, action.Outcome)
	assert.Equal(t, uuid.Nil, action.RealizedID)
	assert.Len(t, store.AllTransactions(), len(before))
	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("1000").Equal(acc.Balance))
	src, _ := store.Transaction(txID)
	assert.True(t, src.Schedule.NextRecurringDate.Equal(next))
}

func TestProcessRecurring_NotFoundIsNoop(t *testing.T) {
	store := memstore.New()

	action := &ProcessRecurringTransaction{TransactionID: uuid.Must(uuid.NewV4()), UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))
	assert.Equal(t, OutcomeNotFound, action.Outcome)
	assert.Empty(t, store.AllTransactions())
}

func TestProcessRecurring_OtherUserIsNotFound(t *testing.T) {
	store := memstore.New()
	_, txID := seedRecurring(t, store, transaction.TypeExpense, "50", neverProcessed(recurrence.IntervalMonthly))

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: "someone_else", Now: testNow}
	require.NoError(t, perform(t, store, action))
	assert.Equal(t, OutcomeNotFound, action.Outcome)
	assert.Len(t, store.AllTransactions(), 1)
}

func TestProcessRecurring_NonRecurringIsNoop(t *testing.T) {
	store := memstore.New()
	accountID := store.PutAccount(account.Account{UserID: testUser, Name: "Main", Balance: decimal.RequireFromString("1000")})
	txID := store.PutTransaction(transaction.Transaction{
		UserID:    testUser,
		AccountID: accountID,
		Type:      transaction.TypeExpense,
		Amount:    decimal.RequireFromString("5"),
		Category:  "food",
	})

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, action))
	assert.Equal(t, OutcomeNotRecurring, action.Outcome)
	assert.Len(t, store.AllTransactions(), 1)
}

func TestProcessRecurring_DuplicateDeliveryFiresOnce(t *testing.T) {
	store := memstore.New()
	accountID, txID := seedRecurring(t, store, transaction.TypeExpense, "50", neverProcessed(recurrence.IntervalMonthly))

	first := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, first))
	second := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow.Add(time.Minute)}
	require.NoError(t, perform(t, store, second))

	assert.Equal(t, OutcomeFired, first.Outcome)
	assert.Equal(t, OutcomeNotDue, second.Outcome)
	assert.Len(t, store.AllTransactions(), 2)
	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("950").Equal(acc.Balance))
}

func TestProcessRecurring_FailureRollsBackEverything(t *testing.T) {
	store := memstore.New()
	accountID, txID := seedRecurring(t, store, transaction.TypeExpense, "50", neverProcessed(recurrence.IntervalMonthly))
	boom := errors.New("balance update failed")
	store.FailOn("IncrementBalance", boom)

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	err := perform(t, store, action)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, store.AllTransactions(), 1)
	acc, _ := store.Account(accountID)
	assert.True(t, decimal.RequireFromString("1000").Equal(acc.Balance))
	src, _ := store.Transaction(txID)
	assert.Nil(t, src.Schedule.LastProcessed)

	// Redelivery after the fault clears fires exactly once.
	store.FailOn("IncrementBalance", nil)
	retry := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	require.NoError(t, perform(t, store, retry))
	assert.Equal(t, OutcomeFired, retry.Outcome)
	acc, _ = store.Account(accountID)
	assert.True(t, decimal.RequireFromString("950").Equal(acc.Balance))
}

func TestProcessRecurring_AdvanceConflict(t *testing.T) {
	store := memstore.New()
	_, txID := seedRecurring(t, store, transaction.TypeExpense, "50", neverProcessed(recurrence.IntervalMonthly))
	store.FailOn("AdvanceSchedule", transaction.ErrScheduleConflict)

	action := &ProcessRecurringTransaction{TransactionID: txID, UserID: testUser, Now: testNow}
	err := perform(t, store, action)
	assert.ErrorIs(t, err, transaction.ErrScheduleConflict)
	assert.Len(t, store.AllTransactions(), 1)
}
