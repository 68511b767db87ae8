package storage

import (
	"context"

	"github.com/stephenafamo/bob"

	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// Committer ends a storage transaction.
type Committer interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Writer groups the table writers of one storage transaction. Everything done
// through a Writer becomes visible to others only on Commit.
type Writer struct {
	tx          Committer
	Account     account.IAccountWriter
	Transaction transaction.ITransactionWriter
}

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx:          &tx,
		Account:     account.NewWriter(tx),
		Transaction: transaction.NewWriter(tx),
	}
}

// NewWriterWith assembles a Writer from its parts, for alternative backends.
func NewWriterWith(tx Committer, accounts account.IAccountWriter, transactions transaction.ITransactionWriter) *Writer {
	return &Writer{
		tx:          tx,
		Account:     accounts,
		Transaction: transactions,
	}
}

func (w *Writer) Commit() error {
	return w.tx.Commit(context.Background())
}

func (w *Writer) Rollback() error {
	return w.tx.Rollback(context.Background())
}
