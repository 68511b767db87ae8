package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-server/internal/jobs"
	"github.com/carson-networks/finance-server/internal/logging"
	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// ActionProcessor runs an action in a storage transaction.
// *operator.OperatorDelegator is the production implementation.
type ActionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Result reports what happened to one work item. Processed is true only when
// the transaction fired.
type Result struct {
	Processed bool
	Outcome   actions.Outcome
}

// Processor handles one work item at a time.
type Processor struct {
	operator ActionProcessor
	timeout  time.Duration
	now      func() time.Time
	log      *logrus.Logger
}

func NewProcessor(operator ActionProcessor, timeout time.Duration, log *logrus.Logger) *Processor {
	return &Processor{
		operator: operator,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
	}
}

// Handle re-validates the referenced transaction and fires it if it is still
// due. Redelivered or concurrent duplicates find the schedule already advanced
// and return a Result with Processed false.
func (p *Processor) Handle(ctx context.Context, item jobs.WorkItem) (Result, error) {
	if err := item.Validate(); err != nil {
		return Result{}, jobs.Permanent(err)
	}
	// Validate already checked the format.
	txID := uuid.FromStringOrNil(item.TransactionID)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	action := &actions.ProcessRecurringTransaction{
		TransactionID: txID,
		UserID:        item.UserID,
		Now:           p.now(),
	}
	err := p.operator.Process(ctx, action)
	if errors.Is(err, transaction.ErrScheduleConflict) {
		// Another delivery advanced the schedule first.
		return Result{Outcome: actions.OutcomeNotDue}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("process recurring transaction %s: %w", txID, err)
	}

	return Result{
		Processed: action.Outcome == actions.OutcomeFired,
		Outcome:   action.Outcome,
	}, nil
}

// HandleItem adapts Handle to jobs.Handler and logs each delivery.
func (p *Processor) HandleItem(ctx context.Context, item jobs.WorkItem) error {
	logData := logging.NewLogData(p.log)
	logData.AddData("itemID", item.ID)
	logData.AddData("transactionID", item.TransactionID)
	logData.AddData("userID", item.UserID)
	logData.AddData("attempt", item.Attempt)
	ctx = logging.WithLogData(ctx, logData)

	endTimer := logData.AddTiming("duration")
	result, err := p.Handle(ctx, item)
	endTimer()
	if err != nil {
		logData.Log().WithError(err).Error("Processor.Item.Error")
		return err
	}

	logData.AddData("outcome", string(result.Outcome))
	logData.Log().Info("Processor.Item.Complete")
	return nil
}
