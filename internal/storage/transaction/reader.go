package transaction

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var _ ITransactionReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

// FindByID retrieves a transaction by primary key and owner.
func (r *Reader) FindByID(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error) {
	return r.findOne(ctx, userID, id)
}

// List returns transactions matching the filter, newest first. A positive
// Limit fetches one extra row so callers can detect a next page.
func (r *Reader) List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(sqlconfig.TransactionColumns...),
		sm.From(sqlconfig.TransactionsTable),
	}
	if filter != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.TransactionColumnUserID).EQ(psql.Arg(filter.UserID))))
		if filter.AccountID != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.TransactionColumnAccountID).EQ(psql.Arg(*filter.AccountID))))
		}
		if filter.Type != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.TransactionColumnType).EQ(psql.Arg(string(*filter.Type)))))
		}
		if filter.Recurring != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.TransactionColumnIsRecurring).EQ(psql.Arg(*filter.Recurring))))
		}
		if filter.MaxCreationTime != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.TransactionColumnCreatedAt).LTE(psql.Arg(*filter.MaxCreationTime))))
		}
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote(sqlconfig.TransactionColumnCreatedAt)).Desc(),
		sm.OrderBy(psql.Quote(sqlconfig.TransactionColumnID)).Desc(),
	)

	rows, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[sqlconfig.TransactionRow]())
	if err != nil {
		return nil, err
	}
	return rowsToTransactions(rows), nil
}

func (r *Reader) ListDue(ctx context.Context, now time.Time) ([]*Transaction, error) {
	q := psql.Select(
		sm.Columns(sqlconfig.TransactionColumns...),
		sm.From(sqlconfig.TransactionsTable),
		sm.Where(psql.Quote(sqlconfig.TransactionColumnIsRecurring).EQ(psql.Arg(true))),
		sm.Where(psql.Quote(sqlconfig.TransactionColumnStatus).EQ(psql.Arg(string(StatusCompleted)))),
		sm.Where(psql.Or(
			psql.Quote(sqlconfig.TransactionColumnLastProcessed).IsNull(),
			psql.Quote(sqlconfig.TransactionColumnNextRecurringDate).LTE(psql.Arg(now)),
		)),
		sm.OrderBy(psql.Quote(sqlconfig.TransactionColumnUserID)).Asc(),
		sm.OrderBy(psql.Quote(sqlconfig.TransactionColumnID)).Asc(),
	)

	rows, err := bob.All(ctx, r.exec, q, scan.StructMapper[sqlconfig.TransactionRow]())
	if err != nil {
		return nil, err
	}
	return rowsToTransactions(rows), nil
}

func (r *Reader) findOne(ctx context.Context, userID string, id uuid.UUID, extra ...bob.Mod[*dialect.SelectQuery]) (*Transaction, error) {
	queryMods := append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(sqlconfig.TransactionColumns...),
		sm.From(sqlconfig.TransactionsTable),
		sm.Where(psql.Quote(sqlconfig.TransactionColumnID).EQ(psql.Arg(id))),
		sm.Where(psql.Quote(sqlconfig.TransactionColumnUserID).EQ(psql.Arg(userID))),
	}, extra...)

	row, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[sqlconfig.TransactionRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToTransaction(row), nil
}

func rowsToTransactions(rows []sqlconfig.TransactionRow) []*Transaction {
	result := make([]*Transaction, len(rows))
	for i, row := range rows {
		result[i] = rowToTransaction(row)
	}
	return result
}
