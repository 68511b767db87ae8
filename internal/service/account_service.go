package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/storage/account"
)

const defaultAccountLimit = 20

// AccountService handles account business logic.
type AccountService struct {
	accounts account.IAccountReader
	operator ActionProcessor
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts account.IAccountReader, operator ActionProcessor) *AccountService {
	return &AccountService{accounts: accounts, operator: operator}
}

// CreateAccount creates a new account for acc.UserID and returns its ID.
func (s *AccountService) CreateAccount(ctx context.Context, acc Account) (uuid.UUID, error) {
	accountType, err := accountTypeToStorage(acc.Type)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	action := &actions.CreateAccount{
		UserID:    acc.UserID,
		Name:      acc.Name,
		Type:      accountType,
		Balance:   acc.Balance,
		IsDefault: acc.IsDefault,
	}
	if err := s.operator.Process(ctx, action); err != nil {
		return uuid.Nil, err
	}
	return action.CreatedID, nil
}

// GetAccount retrieves one of userID's accounts.
func (s *AccountService) GetAccount(ctx context.Context, userID string, id uuid.UUID) (*Account, error) {
	row, err := s.accounts.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	acc := accountFromStorage(row)
	return &acc, nil
}

// ListAccounts returns a page of userID's accounts using cursor pagination.
// The default account comes first.
func (s *AccountService) ListAccounts(ctx context.Context, userID string, cursor *AccountCursor) ([]Account, *AccountCursor, error) {
	limit := defaultAccountLimit
	offset := 0
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
	}

	result, err := s.accounts.List(ctx, &account.AccountFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(result.Accounts) == 0 {
		return nil, nil, nil
	}

	var nextCursor *AccountCursor
	if result.NextCursor != nil {
		nextCursor = &AccountCursor{
			Position: result.NextCursor.Position,
			Limit:    result.NextCursor.Limit,
		}
	}

	convertedAccounts := make([]Account, len(result.Accounts))
	for i, row := range result.Accounts {
		convertedAccounts[i] = accountFromStorage(row)
	}

	return convertedAccounts, nextCursor, nil
}
