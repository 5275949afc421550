package mutex

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/dipalisurve2377/organization-events-sub001/testing/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMutex(t *testing.T, driver database.Driver) (Mutex, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewSqlMutex(db, driver, log.NewNilLogger()), mock
}

func TestMysqlMutex(t *testing.T) {
	sagaId := "create-org-acme"

	t.Run("successfully lock saga and unlock", func(t *testing.T) {
		m, mock := createMutex(t, database.MYSQLDriver)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		mock.
			ExpectQuery("SELECT GET_LOCK(?, 0);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("1"))

		lock, err := m.Lock(ctx, sagaId)
		require.NoError(t, err)

		mock.
			ExpectQuery("SELECT RELEASE_LOCK(?);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("1"))

		assert.NoError(t, lock.Release(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock is held by another owner", func(t *testing.T) {
		m, mock := createMutex(t, database.MYSQLDriver)

		mock.
			ExpectQuery("SELECT GET_LOCK(?, 0);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("0"))

		lock, err := m.Lock(context.Background(), sagaId)
		assert.Nil(t, lock)
		assert.ErrorIs(t, err, ErrLocked)
		assert.IsType(t, MutexErr{}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock query returns an error status", func(t *testing.T) {
		m, mock := createMutex(t, database.MYSQLDriver)

		mock.
			ExpectQuery("SELECT GET_LOCK(?, 0);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("-333"))

		lock, err := m.Lock(context.Background(), sagaId)
		assert.Nil(t, lock)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got error status -333 when acquiring lock for saga create-org-acme")
		assert.NotErrorIs(t, err, ErrLocked)
	})

	t.Run("lock query fails", func(t *testing.T) {
		m, mock := createMutex(t, database.MYSQLDriver)

		mock.
			ExpectQuery("SELECT GET_LOCK(?, 0);").
			WithArgs(sagaId).
			WillReturnError(errors.New("connection reset"))

		_, err := m.Lock(context.Background(), sagaId)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acquiring lock for saga create-org-acme")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("release of a lock taken by another thread", func(t *testing.T) {
		m, mock := createMutex(t, database.MYSQLDriver)

		mock.
			ExpectQuery("SELECT GET_LOCK(?, 0);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("1"))
		mock.
			ExpectQuery("SELECT RELEASE_LOCK(?);").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow("0"))

		lock, err := m.Lock(context.Background(), sagaId)
		require.NoError(t, err)

		err = lock.Release(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock was not established by this thread for saga create-org-acme")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgsqlMutex(t *testing.T) {
	sagaId := "delete-user-jane@example.com"

	t.Run("successfully lock saga and unlock", func(t *testing.T) {
		m, mock := createMutex(t, database.PGDriver)

		mock.
			ExpectQuery("SELECT pg_try_advisory_lock(hashtext($1));").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))

		lock, err := m.Lock(context.Background(), sagaId)
		require.NoError(t, err)

		mock.
			ExpectQuery("SELECT pg_advisory_unlock(hashtext($1));").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

		assert.NoError(t, lock.Release(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock is held by another session", func(t *testing.T) {
		m, mock := createMutex(t, database.PGDriver)

		mock.
			ExpectQuery("SELECT pg_try_advisory_lock(hashtext($1));").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

		lock, err := m.Lock(context.Background(), sagaId)
		assert.Nil(t, lock)
		assert.ErrorIs(t, err, ErrLocked)
	})

	t.Run("unlock query fails", func(t *testing.T) {
		m, mock := createMutex(t, database.PGDriver)

		mock.
			ExpectQuery("SELECT pg_try_advisory_lock(hashtext($1));").
			WithArgs(sagaId).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
		mock.
			ExpectQuery("SELECT pg_advisory_unlock(hashtext($1));").
			WithArgs(sagaId).
			WillReturnError(errors.New("terminating connection"))

		lock, err := m.Lock(context.Background(), sagaId)
		require.NoError(t, err)

		err = lock.Release(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "releasing lock for saga delete-user-jane@example.com")
		assert.IsType(t, MutexErr{}, err)
	})
}

func TestMemoryMutex(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMutex()

	lock, err := m.Lock(ctx, "create-org-acme")
	require.NoError(t, err)

	_, err = m.Lock(ctx, "create-org-acme")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := m.Lock(ctx, "create-org-globex")
	require.NoError(t, err)
	assert.NoError(t, other.Release(ctx))

	assert.NoError(t, lock.Release(ctx))
	assert.Error(t, lock.Release(ctx))

	again, err := m.Lock(ctx, "create-org-acme")
	require.NoError(t, err)
	assert.NoError(t, again.Release(ctx))
}
