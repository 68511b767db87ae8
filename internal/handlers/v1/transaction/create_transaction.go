package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/handlers/v1/common"
	"github.com/carson-networks/finance-server/internal/logging"
	"github.com/carson-networks/finance-server/internal/service"
)

// CreateTransactionBody is the request body for creating a transaction.
type CreateTransactionBody struct {
	AccountID         string `json:"accountID" required:"true" doc:"Account UUID"`
	Type              string `json:"type" required:"true" enum:"INCOME,EXPENSE" doc:"Transaction type"`
	Amount            string `json:"amount" required:"true" doc:"Non-negative decimal amount"`
	Description       string `json:"description,omitempty" doc:"Free text description"`
	Date              string `json:"date,omitempty" doc:"RFC3339 transaction date, defaults to now"`
	Category          string `json:"category" required:"true" minLength:"1" doc:"Category label"`
	IsRecurring       bool   `json:"isRecurring,omitempty" doc:"Repeat this transaction on recurringInterval"`
	RecurringInterval string `json:"recurringInterval,omitempty" enum:"DAILY,WEEKLY,MONTHLY,YEARLY" doc:"Required when isRecurring is set"`
}

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	common.UserHeader
	Body CreateTransactionBody
}

// CreateTransactionResponse is the response body for creating a transaction.
type CreateTransactionResponse struct {
	ID string `json:"id" doc:"Created transaction UUID"`
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Status int
	Body   CreateTransactionResponse
}

// transactionCreator is the interface for creating transactions.
type transactionCreator interface {
	CreateTransaction(ctx context.Context, transaction service.Transaction) (uuid.UUID, error)
}

// CreateTransactionHandler handles POST /v1/transaction.
type CreateTransactionHandler struct {
	TransactionService transactionCreator
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "create-transaction",
		Method:      http.MethodPost,
		Path:        "/v1/transaction",
		Summary:     "Create transaction",
		Description: "Creates a new transaction and applies it to the account balance.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

// parseCreateTransactionInput parses the fields that need more than schema
// validation. A missing date is returned as the zero time.
func parseCreateTransactionInput(input *CreateTransactionInput) (service.Transaction, error) {
	accountID, err := uuid.FromString(input.Body.AccountID)
	if err != nil {
		return service.Transaction{}, huma.NewError(http.StatusBadRequest, "invalid accountID", err)
	}
	amount, err := common.ParseDecimal("amount", input.Body.Amount, "")
	if err != nil {
		return service.Transaction{}, err
	}
	if amount.IsNegative() {
		return service.Transaction{}, huma.NewError(http.StatusBadRequest, "amount must not be negative")
	}
	if input.Body.IsRecurring != (input.Body.RecurringInterval != "") {
		return service.Transaction{}, huma.NewError(http.StatusBadRequest, "recurringInterval is required exactly when isRecurring is set")
	}

	var date time.Time
	if input.Body.Date != "" {
		date, err = time.Parse(time.RFC3339, input.Body.Date)
		if err != nil {
			return service.Transaction{}, huma.NewError(http.StatusBadRequest, "invalid date", err)
		}
	}

	return service.Transaction{
		UserID:            input.UserID,
		AccountID:         accountID,
		Type:              input.Body.Type,
		Amount:            amount,
		Description:       input.Body.Description,
		Date:              date,
		Category:          input.Body.Category,
		IsRecurring:       input.Body.IsRecurring,
		RecurringInterval: input.Body.RecurringInterval,
	}, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	logData := logging.GetLogData(ctx)

	tx, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("createTransactionMs")
	}
	id, err := h.TransactionService.CreateTransaction(ctx, tx)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, common.Error(err, "failed to create transaction")
	}

	if logData != nil {
		logData.AddData("transactionID", id.String())
	}

	return &CreateTransactionOutput{
		Status: http.StatusCreated,
		Body:   CreateTransactionResponse{ID: id.String()},
	}, nil
}
