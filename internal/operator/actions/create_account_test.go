package actions

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/memstore"
)

// -- CreateAccount tests --

func TestCreateAccount_FirstAccountIsDefault(t *testing.T) {
	store := memstore.New()

	action := &CreateAccount{
		UserID:  testUser,
		Name:    "Main",
		Type:    account.AccountTypeCurrent,
		Balance: decimal.RequireFromString("100"),
	}
	require.NoError(t, perform(t, store, action))

	assert.True(t, action.MadeDefault)
	acc, ok := store.Account(action.CreatedID)
	require.True(t, ok)
	assert.True(t, acc.IsDefault)
	assert.Equal(t, "Main", acc.Name)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("100")))
}

func TestCreateAccount_NewDefaultClearsPrevious(t *testing.T) {
	store := memstore.New()
	oldID := store.PutAccount(account.Account{UserID: testUser, Name: "Old", Type: account.AccountTypeCurrent, IsDefault: true})
	otherUser := store.PutAccount(account.Account{UserID: "user_2", Name: "Theirs", Type: account.AccountTypeCurrent, IsDefault: true})

	action := &CreateAccount{UserID: testUser, Name: "Savings", Type: account.AccountTypeSavings, IsDefault: true}
	require.NoError(t, perform(t, store, action))

	old, _ := store.Account(oldID)
	assert.False(t, old.IsDefault)
	created, _ := store.Account(action.CreatedID)
	assert.True(t, created.IsDefault)
	theirs, _ := store.Account(otherUser)
	assert.True(t, theirs.IsDefault)
}

func TestCreateAccount_NonDefaultKeepsExisting(t *testing.T) {
	store := memstore.New()
	oldID := store.PutAccount(account.Account{UserID: testUser, Name: "Old", Type: account.AccountTypeCurrent, IsDefault: true})

	action := &CreateAccount{UserID: testUser, Name: "Second", Type: account.AccountTypeSavings}
	require.NoError(t, perform(t, store, action))

	assert.False(t, action.MadeDefault)
	old, _ := store.Account(oldID)
	assert.True(t, old.IsDefault)
}

func TestCreateAccount_MissingName(t *testing.T) {
	store := memstore.New()

	err := perform(t, store, &CreateAccount{UserID: testUser, Type: account.AccountTypeCurrent})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestCreateAccount_SubCentBalance(t *testing.T) {
	store := memstore.New()

	action := &CreateAccount{
		UserID:  testUser,
		Name:    "Main",
		Type:    account.AccountTypeCurrent,
		Balance: decimal.RequireFromString("100.005"),
	}
	err := perform(t, store, action)

	assert.ErrorIs(t, err, ErrInvalidAccount)
	listed, err := store.Accounts().List(context.Background(), &account.AccountFilter{UserID: testUser})
	require.NoError(t, err)
	assert.Empty(t, listed.Accounts)
}
