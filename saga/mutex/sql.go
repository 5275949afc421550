package mutex

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/pkg/errors"
)

// NewSqlMutex uses advisory locks. A lock lives on the connection that took it, so the connection is kept until Release.
func NewSqlMutex(db *sql.DB, driver database.Driver, logger log.Logger) Mutex {
	if driver == database.MYSQLDriver {
		return &mysqlMutex{db: db, logger: logger}
	}
	return &pgsqlMutex{db: db, logger: logger}
}

type sqlLock struct {
	conn        *sql.Conn
	sagaId      string
	releaseFunc func(ctx context.Context, conn *sql.Conn, sagaId string) error
}

func (l *sqlLock) Release(ctx context.Context) error {
	if err := l.releaseFunc(ctx, l.conn, l.sagaId); err != nil {
		closingErr := l.conn.Close()
		return WithMutexErr(errors.Wrapf(err, "releasing lock for saga %s. %v", l.sagaId, closingErr))
	}

	if err := l.conn.Close(); err != nil {
		return WithMutexErr(errors.Wrapf(err, "closing connection for saga's %s mutex", l.sagaId))
	}

	return nil
}

type mysqlMutex struct {
	db     *sql.DB
	logger log.Logger
}

func (m *mysqlMutex) Lock(ctx context.Context, sagaId string) (Lock, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for saga %s", sagaId))
	}

	r := sql.NullInt64{}
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0);", sagaId).Scan(&r); err != nil {
		closingErr := conn.Close()
		return nil, WithMutexErr(errors.Wrapf(err, "acquiring lock for saga %s. %v", sagaId, closingErr))
	}

	/*
		Returns 1 if the lock was obtained successfully,
		0 if the attempt timed out (for example, because another client has previously locked the name),
		or NULL if an error occurred (such as running out of memory or the thread was killed with mysqladmin kill).
	*/
	switch {
	case r.Valid && r.Int64 == 1:
		return &sqlLock{conn: conn, sagaId: sagaId, releaseFunc: m.release}, nil
	case r.Valid && r.Int64 == 0:
		if closingErr := conn.Close(); closingErr != nil {
			m.logger.Logf(log.ErrorLevel, "closing connection after busy lock for saga %s. %s", sagaId, closingErr)
		}
		return nil, WithMutexErr(errors.Wrapf(ErrLocked, "saga %s", sagaId))
	default:
		closingErr := conn.Close()
		return nil, WithMutexErr(errors.Errorf("got error status %d when acquiring lock for saga %s. %v", r.Int64, sagaId, closingErr))
	}
}

func (m *mysqlMutex) release(ctx context.Context, conn *sql.Conn, sagaId string) error {
	r := sql.NullInt64{}
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?);", sagaId).Scan(&r); err != nil {
		return errors.WithStack(err)
	}

	if r.Int64 != 1 {
		return errors.Errorf("lock was not established by this thread for saga %s", sagaId)
	}

	return nil
}

type pgsqlMutex struct {
	db     *sql.DB
	logger log.Logger
}

func (p *pgsqlMutex) Lock(ctx context.Context, sagaId string) (Lock, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for saga %s", sagaId))
	}

	var locked bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1));", sagaId).Scan(&locked); err != nil {
		errMsg := fmt.Sprintf("acquiring lock for saga %s. %s", sagaId, err)

		if closingErr := conn.Close(); closingErr != nil {
			errMsg = fmt.Sprintf("%s. also failed to close connection %s", errMsg, closingErr.Error())
		}
		return nil, WithMutexErr(errors.New(errMsg))
	}

	if !locked {
		if closingErr := conn.Close(); closingErr != nil {
			p.logger.Logf(log.ErrorLevel, "closing connection after busy lock for saga %s. %s", sagaId, closingErr)
		}
		return nil, WithMutexErr(errors.Wrapf(ErrLocked, "saga %s", sagaId))
	}

	return &sqlLock{conn: conn, sagaId: sagaId, releaseFunc: p.release}, nil
}

func (p *pgsqlMutex) release(ctx context.Context, conn *sql.Conn, sagaId string) error {
	var unlocked bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1));", sagaId).Scan(&unlocked); err != nil {
		return errors.WithStack(err)
	}

	if !unlocked {
		return errors.Errorf("lock was not established by this session for saga %s", sagaId)
	}

	return nil
}
