package store

import (
	"database/sql"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
)

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

func notFound(kind Kind, key string) error {
	return failure.Newf(failure.RecordNotFound, "%s '%s' not found", kind, key)
}

// classify turns a driver error into the failure taxonomy
func classify(err error, kind Kind, key, operation string) error {
	if err == nil {
		return nil
	}

	if _, classified := failure.As(err); classified {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, key)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return failure.Wrapf(err, failure.ClientError, "%s %s '%s' violates a unique constraint", operation, kind, key)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return failure.Wrapf(err, failure.ClientError, "%s %s '%s' violates a unique constraint", operation, kind, key)
	}

	return failure.Wrapf(err, failure.StoreUnavailable, "%s %s '%s'", operation, kind, key)
}
