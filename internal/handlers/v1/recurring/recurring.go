// Package recurring exposes operator endpoints for recurring transaction
// processing.
package recurring

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-server/internal/handlers/v1/common"
	"github.com/carson-networks/finance-server/internal/jobs"
	"github.com/carson-networks/finance-server/internal/logging"
)

type recurringService interface {
	Scan(ctx context.Context) (int, error)
	DeadLetters(userID string) []jobs.DeadLetter
}

// ScanOutput reports how many work items a scan published.
type ScanOutput struct {
	Body struct {
		Triggered int `json:"triggered" doc:"Number of recurring transactions queued for processing"`
	}
}

// DeadLettersInput lists the caller's failed work items.
type DeadLettersInput struct {
	common.UserHeader
}

// DeadLetter is the API model of a failed work item.
type DeadLetter struct {
	ItemID        string `json:"itemID" doc:"Work item id"`
	TransactionID string `json:"transactionID" doc:"Recurring transaction UUID"`
	Attempts      int    `json:"attempts" doc:"Deliveries made before giving up"`
	Error         string `json:"error" doc:"Last processing error"`
	FailedAt      string `json:"failedAt" doc:"RFC3339 time the item was given up on"`
}

type DeadLettersOutput struct {
	Body struct {
		DeadLetters []DeadLetter `json:"deadLetters" doc:"Work items that could not be processed"`
	}
}

// Handler serves POST /v1/recurring/scan and GET /v1/recurring/dead-letters.
type Handler struct {
	Recurring recurringService
}

func NewHandler(svc recurringService) *Handler {
	return &Handler{Recurring: svc}
}

func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "scan-recurring",
		Method:      http.MethodPost,
		Path:        "/v1/recurring/scan",
		Summary:     "Run a due scan now",
		Description: "Queues every recurring transaction that is due, outside the daily schedule.",
		Tags:        []string{"Recurring"},
	}, h.scan)

	huma.Register(api, huma.Operation{
		OperationID: "list-recurring-dead-letters",
		Method:      http.MethodGet,
		Path:        "/v1/recurring/dead-letters",
		Summary:     "List failed recurring work",
		Tags:        []string{"Recurring"},
	}, h.deadLetters)
}

func (h *Handler) scan(ctx context.Context, _ *struct{}) (*ScanOutput, error) {
	count, err := h.Recurring.Scan(ctx)
	if err != nil {
		return nil, common.Error(err, "failed to scan recurring transactions")
	}
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("triggered", count)
	}

	out := &ScanOutput{}
	out.Body.Triggered = count
	return out, nil
}

func (h *Handler) deadLetters(_ context.Context, input *DeadLettersInput) (*DeadLettersOutput, error) {
	letters := h.Recurring.DeadLetters(input.UserID)

	out := &DeadLettersOutput{}
	out.Body.DeadLetters = make([]DeadLetter, len(letters))
	for i, dl := range letters {
		out.Body.DeadLetters[i] = DeadLetter{
			ItemID:        dl.Item.ID,
			TransactionID: dl.Item.TransactionID,
			Attempts:      dl.Item.Attempt,
			Error:         dl.Error,
			FailedAt:      dl.FailedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}
