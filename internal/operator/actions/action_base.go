package actions

import (
	"context"

	"github.com/carson-networks/finance-server/internal/storage"
)

// IAction is one unit of work executed inside a single storage transaction.
// Returning an error rolls back everything the action wrote.
type IAction interface {
	Perform(ctx context.Context, writer *storage.Writer) error
}
