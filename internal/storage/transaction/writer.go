package transaction

import (
	"context"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-server/internal/recurrence"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var _ ITransactionWriter = (*Writer)(nil)

type Writer struct {
	tx bob.Executor
	Reader
}

// NewWriter returns a writer bound to an open transaction.
func NewWriter(tx bob.Executor) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

func (w *Writer) FindByIDForUpdate(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error) {
	return w.findOne(ctx, userID, id, sm.ForUpdate())
}

// Insert creates a new transaction and returns its generated ID.
func (w *Writer) Insert(ctx context.Context, create *TransactionCreate) (uuid.UUID, error) {
	status := create.Status
	if status == "" {
		status = StatusCompleted
	}

	columns := []string{
		sqlconfig.TransactionColumnUserID,
		sqlconfig.TransactionColumnAccountID,
		sqlconfig.TransactionColumnType,
		sqlconfig.TransactionColumnAmount,
		sqlconfig.TransactionColumnDescription,
		sqlconfig.TransactionColumnCategory,
		sqlconfig.TransactionColumnIsRecurring,
		sqlconfig.TransactionColumnRecurringInterval,
		sqlconfig.TransactionColumnNextRecurringDate,
		sqlconfig.TransactionColumnLastProcessed,
		sqlconfig.TransactionColumnStatus,
	}
	values := []bob.Expression{
		psql.Arg(create.UserID),
		psql.Arg(create.AccountID),
		psql.Arg(string(create.Type)),
		psql.Arg(create.Amount),
		psql.Arg(create.Description),
		psql.Arg(create.Category),
		psql.Arg(create.IsRecurring),
		psql.Arg(intervalArg(create.Schedule)),
		psql.Arg(null.FromPtr(create.Schedule.NextRecurringDate)),
		psql.Arg(null.FromPtr(create.Schedule.LastProcessed)),
		psql.Arg(string(status)),
	}
	if date, ok := create.Date.Get(); ok {
		columns = append(columns, sqlconfig.TransactionColumnDate)
		values = append(values, psql.Arg(date))
	}

	q := psql.Insert(
		im.Into(sqlconfig.TransactionsTable, columns...),
		im.Values(values...),
		im.Returning(sqlconfig.TransactionColumnID),
	)
	return bob.One(ctx, w.tx, q, scan.SingleColumnMapper[uuid.UUID])
}

func (w *Writer) AdvanceSchedule(ctx context.Context, id uuid.UUID, prev, next recurrence.Schedule) error {
	q := psql.Update(
		um.Table(sqlconfig.TransactionsTable),
		um.SetCol(sqlconfig.TransactionColumnLastProcessed).ToArg(null.FromPtr(next.LastProcessed)),
		um.SetCol(sqlconfig.TransactionColumnNextRecurringDate).ToArg(null.FromPtr(next.NextRecurringDate)),
		um.SetCol(sqlconfig.TransactionColumnUpdatedAt).To(psql.Raw("now()")),
		um.Where(psql.Quote(sqlconfig.TransactionColumnID).EQ(psql.Arg(id))),
		um.Where(psql.Raw("last_processed IS NOT DISTINCT FROM ?::timestamptz", null.FromPtr(prev.LastProcessed))),
	)
	res, err := bob.Exec(ctx, w.tx, q)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScheduleConflict
	}
	return nil
}
