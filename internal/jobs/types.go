package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// EventRecurringProcess is the name of the work item that asks for one
// recurring transaction to be processed.
const EventRecurringProcess = "transaction.recurring.process"

var (
	// ErrInvalidWorkItem marks an item that can never succeed; it is
	// dead-lettered without retries.
	ErrInvalidWorkItem = errors.New("invalid work item")
	ErrQueueClosed     = errors.New("queue is closed")
	// ErrQueueFull rejects a whole batch that does not fit in the queue.
	ErrQueueFull = errors.New("queue is full")
)

// WorkItem identifies one recurring transaction to process. The payload is
// identifiers only; the processor re-reads everything else from the store.
type WorkItem struct {
	// ID is assigned on publish when empty.
	ID string `json:"id"`

	// Name is the event name, EventRecurringProcess.
	Name string `json:"name"`

	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`

	// Attempt counts deliveries of this item, starting at 1.
	Attempt int `json:"attempt"`

	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewRecurringWorkItem builds the work item for one recurring transaction.
func NewRecurringWorkItem(transactionID uuid.UUID, userID string) WorkItem {
	return WorkItem{
		Name:          EventRecurringProcess,
		TransactionID: transactionID.String(),
		UserID:        userID,
	}
}

// Validate checks the payload shape. Failures wrap ErrInvalidWorkItem.
func (w WorkItem) Validate() error {
	if w.Name != "" && w.Name != EventRecurringProcess {
		return fmt.Errorf("%w: unexpected event %q", ErrInvalidWorkItem, w.Name)
	}
	if w.TransactionID == "" {
		return fmt.Errorf("%w: missing transactionId", ErrInvalidWorkItem)
	}
	if _, err := uuid.FromString(w.TransactionID); err != nil {
		return fmt.Errorf("%w: transactionId %q: %v", ErrInvalidWorkItem, w.TransactionID, err)
	}
	if w.UserID == "" {
		return fmt.Errorf("%w: missing userId", ErrInvalidWorkItem)
	}
	return nil
}

// DeadLetter is an item that exhausted its retries or failed permanently.
type DeadLetter struct {
	Item     WorkItem  `json:"item"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

// Publisher defines the interface for publishing work items to a queue.
type Publisher interface {
	// PublishMany enqueues the whole batch or none of it.
	PublishMany(ctx context.Context, items []WorkItem) error

	Close() error
}

// Consumer defines the interface for consuming work items from a queue.
type Consumer interface {
	// Start begins consuming items. handler is called once per delivery.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and waits for in-flight items to complete.
	Stop(ctx context.Context) error
}

// Handler processes one delivery of a work item. A returned error makes the
// item eligible for retry unless it is permanent.
type Handler func(ctx context.Context, item WorkItem) error

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked Permanent or is an invalid item.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrInvalidWorkItem)
}
