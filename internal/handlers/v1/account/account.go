package account

import (
	"time"

	"github.com/carson-networks/finance-server/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	ID        string `json:"id" doc:"Account UUID"`
	Name      string `json:"name" doc:"Account name"`
	Type      string `json:"type" enum:"CURRENT,SAVINGS" doc:"Account type"`
	Balance   string `json:"balance" doc:"Decimal balance"`
	IsDefault bool   `json:"isDefault" doc:"Whether this is the user's default account"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
}

func accountResponse(acc service.Account) Account {
	return Account{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Type:      string(acc.Type),
		Balance:   acc.Balance.String(),
		IsDefault: acc.IsDefault,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
	}
}
