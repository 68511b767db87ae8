package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
)

const defaultListLimit = 20

var _ IAccountReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) List(ctx context.Context, filter *AccountFilter) (*AccountListResult, error) {
	limit := defaultListLimit
	offset := 0
	var queryMods []bob.Mod[*dialect.SelectQuery]
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		offset = filter.Offset
		queryMods = append(queryMods, sm.Where(psql.Quote(sqlconfig.AccountColumnUserID).EQ(psql.Arg(filter.UserID))))
	}

	queryMods = append(queryMods,
		sm.Columns(sqlconfig.AccountColumns...),
		sm.From(sqlconfig.AccountsTable),
		sm.Limit(limit+1),
		sm.Offset(offset),
		sm.OrderBy(psql.Quote(sqlconfig.AccountColumnIsDefault)).Desc(),
		sm.OrderBy(psql.Quote(sqlconfig.AccountColumnName)).Asc(),
		sm.OrderBy(psql.Quote(sqlconfig.AccountColumnID)).Asc(),
	)
	rows, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[sqlconfig.AccountRow]())
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return &AccountListResult{Accounts: nil, NextCursor: nil}, nil
	}

	var nextCursor *AccountCursor
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &AccountCursor{
			Position: offset + limit,
			Limit:    limit,
		}
	}

	result := make([]*Account, len(rows))
	for i, row := range rows {
		result[i] = rowToAccount(row)
	}
	return &AccountListResult{Accounts: result, NextCursor: nextCursor}, nil
}

func (r *Reader) FindByID(ctx context.Context, userID string, id uuid.UUID) (*Account, error) {
	return r.findOne(ctx, userID, id)
}

func (r *Reader) findOne(ctx context.Context, userID string, id uuid.UUID, extra ...bob.Mod[*dialect.SelectQuery]) (*Account, error) {
	queryMods := append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(sqlconfig.AccountColumns...),
		sm.From(sqlconfig.AccountsTable),
		sm.Where(psql.Quote(sqlconfig.AccountColumnID).EQ(psql.Arg(id))),
		sm.Where(psql.Quote(sqlconfig.AccountColumnUserID).EQ(psql.Arg(userID))),
	}, extra...)

	row, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[sqlconfig.AccountRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToAccount(row), nil
}
