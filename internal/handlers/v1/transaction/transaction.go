package transaction

import (
	"time"

	"github.com/carson-networks/finance-server/internal/service"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID                string `json:"id" doc:"Transaction UUID"`
	AccountID         string `json:"accountID" doc:"Account UUID"`
	Type              string `json:"type" doc:"INCOME or EXPENSE"`
	Amount            string `json:"amount" doc:"Decimal amount"`
	Description       string `json:"description,omitempty" doc:"Free text description"`
	Date              string `json:"date" doc:"RFC3339 transaction date"`
	Category          string `json:"category" doc:"Category label"`
	IsRecurring       bool   `json:"isRecurring" doc:"Whether this transaction repeats"`
	RecurringInterval string `json:"recurringInterval,omitempty" doc:"DAILY, WEEKLY, MONTHLY or YEARLY"`
	NextRecurringDate string `json:"nextRecurringDate,omitempty" doc:"RFC3339 time of the next firing"`
	LastProcessed     string `json:"lastProcessed,omitempty" doc:"RFC3339 time of the last firing"`
	Status            string `json:"status" doc:"PENDING, COMPLETED or FAILED"`
	CreatedAt         string `json:"createdAt" doc:"RFC3339 creation time"`
}

func transactionResponse(tx service.Transaction) Transaction {
	resp := Transaction{
		ID:                tx.ID.String(),
		AccountID:         tx.AccountID.String(),
		Type:              tx.Type,
		Amount:            tx.Amount.String(),
		Description:       tx.Description,
		Date:              tx.Date.Format(time.RFC3339),
		Category:          tx.Category,
		IsRecurring:       tx.IsRecurring,
		RecurringInterval: tx.RecurringInterval,
		Status:            tx.Status,
		CreatedAt:         tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.NextRecurringDate != nil {
		resp.NextRecurringDate = tx.NextRecurringDate.Format(time.RFC3339)
	}
	if tx.LastProcessed != nil {
		resp.LastProcessed = tx.LastProcessed.Format(time.RFC3339)
	}
	return resp
}
