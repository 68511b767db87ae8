// Package scheduler fires recurring transactions: a Trigger finds the due ones
// and publishes a work item for each, a Processor handles one work item, and a
// Runner runs the Trigger on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/carson-networks/finance-server/internal/jobs"
	"github.com/carson-networks/finance-server/internal/logging"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// DueLister finds the recurring transactions due at now.
type DueLister interface {
	ListDue(ctx context.Context, now time.Time) ([]*transaction.Transaction, error)
}

// Trigger publishes one work item per due recurring transaction. It only reads
// the store; every write happens in the Processor.
type Trigger struct {
	due       DueLister
	publisher jobs.Publisher
	now       func() time.Time
}

func NewTrigger(due DueLister, publisher jobs.Publisher) *Trigger {
	return &Trigger{
		due:       due,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run publishes the due set as a single batch and returns its size. Nothing is
// published when the lookup fails, and an empty due set publishes nothing.
func (t *Trigger) Run(ctx context.Context) (int, error) {
	logData := logging.GetLogData(ctx)
	now := t.now()

	var endTimer func()
	if logData != nil {
		endTimer = logData.AddTiming("listDueMs")
	}
	due, err := t.due.ListDue(ctx, now)
	if endTimer != nil {
		endTimer()
	}
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}
	if logData != nil {
		logData.AddData("due", len(due))
	}

	if len(due) == 0 {
		return 0, nil
	}

	items := make([]jobs.WorkItem, len(due))
	for i, tx := range due {
		items[i] = jobs.NewRecurringWorkItem(tx.ID, tx.UserID)
	}

	if err := t.publisher.PublishMany(ctx, items); err != nil {
		return 0, fmt.Errorf("publish %d work items: %w", len(items), err)
	}
	return len(items), nil
}
