package sqlrepo

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/jmoiron/sqlx"
)

// baseRepo carries the helpers shared by every table. Queries are written with
// '?' placeholders and rebound for the querier's driver.
type baseRepo struct {
	entity string
}

func (r baseRepo) get(ctx context.Context, q database.Querier, dest interface{}, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError(r.entity+" not found", err)
		}
		return errors.NewDatabaseError("failed to get "+r.entity, err)
	}
	return nil
}

func (r baseRepo) selectAll(ctx context.Context, q database.Querier, dest interface{}, query string, args ...interface{}) error {
	if err := sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...); err != nil {
		return errors.NewDatabaseError("failed to list "+r.entity, err)
	}
	return nil
}

// exec runs a statement and reports rows affected. Zero rows is NotFound.
func (r baseRepo) exec(ctx context.Context, q database.Querier, op string, query string, args ...interface{}) error {
	_, err := r.execCount(ctx, q, op, query, args...)
	return err
}

func (r baseRepo) execCount(ctx context.Context, q database.Querier, op string, query string, args ...interface{}) (int64, error) {
	result, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to "+op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return 0, errors.NewNotFoundError(r.entity+" not found", nil)
	}
	return rows, nil
}

func (r baseRepo) insert(ctx context.Context, q database.Querier, query string, arg interface{}) error {
	if _, err := sqlx.NamedExecContext(ctx, q, query, arg); err != nil {
		if database.IsUniqueViolation(err) {
			return errors.NewConflictError(r.entity+" already exists", err)
		}
		return errors.NewDatabaseError("failed to create "+r.entity, err)
	}
	return nil
}

func (r baseRepo) exists(ctx context.Context, q database.Querier, query string, args ...interface{}) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return false, errors.NewDatabaseError("failed to check "+r.entity, err)
	}
	return n > 0, nil
}
