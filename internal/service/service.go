package service

import (
	"context"

	"github.com/carson-networks/finance-server/internal/jobs"
	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/storage"
)

// ActionProcessor runs a write action in a storage transaction.
type ActionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Scanner runs one due scan and returns the number of published work items.
type Scanner interface {
	Run(ctx context.Context) (int, error)
}

// DeadLetterSource lists work items that could not be processed.
type DeadLetterSource interface {
	DeadLetters() []jobs.DeadLetter
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Account     *AccountService
	Recurring   *RecurringService
}

// NewService creates a new Service. Reads go straight to store, writes through
// the operator.
func NewService(store *storage.Storage, operator ActionProcessor, scanner Scanner, deadLetters DeadLetterSource) *Service {
	return &Service{
		Transaction: NewTransactionService(store.Transactions, operator),
		Account:     NewAccountService(store.Accounts, operator),
		Recurring:   NewRecurringService(scanner, deadLetters),
	}
}
