package account

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

var _ IAccountWriter = (*Writer)(nil)

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

func (w *Writer) CountForUser(ctx context.Context, userID string) (int64, error) {
	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From(sqlconfig.AccountsTable),
		sm.Where(psql.Quote(sqlconfig.AccountColumnUserID).EQ(psql.Arg(userID))),
	)
	return bob.One(ctx, w.tx, q, scan.SingleColumnMapper[int64])
}

// ClearDefault removes the default flag from every account of the user.
func (w *Writer) ClearDefault(ctx context.Context, userID string) error {
	q := psql.Update(
		um.Table(sqlconfig.AccountsTable),
		um.SetCol(sqlconfig.AccountColumnIsDefault).ToArg(false),
		um.SetCol(sqlconfig.AccountColumnUpdatedAt).To(psql.Raw("now()")),
		um.Where(psql.Quote(sqlconfig.AccountColumnUserID).EQ(psql.Arg(userID))),
		um.Where(psql.Quote(sqlconfig.AccountColumnIsDefault).EQ(psql.Arg(true))),
	)
	_, err := bob.Exec(ctx, w.tx, q)
	return err
}

func (w *Writer) Create(ctx context.Context, create *AccountCreate) (uuid.UUID, error) {
	q := psql.Insert(
		im.Into(sqlconfig.AccountsTable,
			sqlconfig.AccountColumnUserID,
			sqlconfig.AccountColumnName,
			sqlconfig.AccountColumnType,
			sqlconfig.AccountColumnBalance,
			sqlconfig.AccountColumnIsDefault,
		),
		im.Values(
			psql.Arg(create.UserID),
			psql.Arg(create.Name),
			psql.Arg(string(create.Type)),
			psql.Arg(create.Balance),
			psql.Arg(create.IsDefault),
		),
		im.Returning(sqlconfig.AccountColumnID),
	)
	return bob.One(ctx, w.tx, q, scan.SingleColumnMapper[uuid.UUID])
}

// IncrementBalance adds delta to the stored balance in a single statement, so
// concurrent increments on the same account never lose an update.
func (w *Writer) IncrementBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	q := psql.Update(
		um.Table(sqlconfig.AccountsTable),
		um.SetCol(sqlconfig.AccountColumnBalance).To(psql.Raw("balance + ?", delta)),
		um.SetCol(sqlconfig.AccountColumnUpdatedAt).To(psql.Raw("now()")),
		um.Where(psql.Quote(sqlconfig.AccountColumnID).EQ(psql.Arg(id))),
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
		return ErrNotFound
	}
	return nil
}
