package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

const defaultLimit = 20

// TransactionService handles transaction business logic.
type TransactionService struct {
	transactions transaction.ITransactionReader
	operator     ActionProcessor
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(transactions transaction.ITransactionReader, operator ActionProcessor) *TransactionService {
	return &TransactionService{transactions: transactions, operator: operator}
}

// CreateTransaction records a transaction, applies it to its account balance
// and returns its ID.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx Transaction) (uuid.UUID, error) {
	txType, err := transaction.ParseType(tx.Type)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var interval recurrence.Interval
	if tx.RecurringInterval != "" {
		interval, err = recurrence.ParseInterval(tx.RecurringInterval)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	action := &actions.CreateTransaction{
		UserID:      tx.UserID,
		AccountID:   tx.AccountID,
		Type:        txType,
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date,
		Category:    tx.Category,
		IsRecurring: tx.IsRecurring,
		Interval:    interval,
	}
	if err := s.operator.Process(ctx, action); err != nil {
		return uuid.Nil, err
	}
	return action.CreatedID, nil
}

// GetTransaction retrieves one of userID's transactions.
func (s *TransactionService) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error) {
	row, err := s.transactions.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tx := transactionFromStorage(row)
	return &tx, nil
}

// ListTransactions returns a page of userID's transactions using cursor-based
// pagination, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filter TransactionFilter, cursor *TransactionCursor) ([]Transaction, *TransactionCursor, error) {
	limit := defaultLimit
	offset := 0
	var maxCreationTime *time.Time
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
		maxCreationTime = &cursor.MaxCreationTime
	}

	storageFilter := &transaction.TransactionFilter{
		UserID:          userID,
		AccountID:       filter.AccountID,
		Recurring:       filter.Recurring,
		Limit:           limit,
		Offset:          offset,
		MaxCreationTime: maxCreationTime,
	}
	if filter.Type != nil {
		txType, err := transaction.ParseType(*filter.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		storageFilter.Type = &txType
	}

	rows, err := s.transactions.List(ctx, storageFilter)
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	var nextCursor *TransactionCursor
	if len(rows) > limit {
		rows = rows[:limit]

		cursorMaxCreationTime := rows[0].CreatedAt
		if maxCreationTime != nil {
			cursorMaxCreationTime = *maxCreationTime
		}

		nextCursor = &TransactionCursor{
			Position:        offset + limit,
			Limit:           limit,
			MaxCreationTime: cursorMaxCreationTime,
		}
	}

	convertedTransactions := make([]Transaction, len(rows))
	for i, row := range rows {
		convertedTransactions[i] = transactionFromStorage(row)
	}

	return convertedTransactions, nextCursor, nil
}
