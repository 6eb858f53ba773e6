package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation    = pq.ErrorCode("23505")
	codeExclusionViolation = pq.ErrorCode("23P01")
)

// mapError translates driver errors into repository sentinels. Anything
// unrecognised is returned as is.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.Constraint)
		case codeExclusionViolation:
			return fmt.Errorf("%w: %s", repository.ErrOverlap, pgErr.Constraint)
		}
	}
	return err
}

// execOne runs a single-row write and turns zero affected rows into ErrNotFound.
func execOne(ctx context.Context, q sqlx.ExecerContext, operation, query string, args ...interface{}) error {
	logger.DatabaseCall(operation, query)
	var n int64
	res, err := q.ExecContext(ctx, query, args...)
	if err == nil {
		n, err = res.RowsAffected()
	}
	logger.DatabaseResult(operation, n, err)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
