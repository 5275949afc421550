package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type sqlStore struct {
	db     *sql.DB
	driver database.Driver
	now    func() time.Time
	newID  func() string
}

// NewSQLStore creates the record store on top of an existing pool, it supports mysql and postgres drivers.
func NewSQLStore(db *sql.DB, driver database.Driver) (Store, error) {
	s := &sqlStore{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		newID:  func() string { return uuid.New().String() },
	}

	if err := s.initTables(); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for record store, driver %s", driver)
	}

	return s, nil
}

func (s sqlStore) CreatePending(ctx context.Context, kind Kind, key, name string) (*Record, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, kind, key, "beginning a transaction for")
	}

	if _, err := tx.ExecContext(ctx, s.upsertQuery(kind),
		s.newID(),
		key,
		name,
		"",
		StatusProvisioning.String(),
		now,
		now,
	); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return nil, classify(errors.Wrapf(rErr, "rollback when %s", err), kind, key, "upserting")
		}
		return nil, classify(err, kind, key, "upserting")
	}

	record, err := s.selectRecord(ctx, tx, kind, key, false)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return nil, classify(errors.Wrapf(rErr, "rollback when %s", err), kind, key, "reading")
		}
		return nil, classify(err, kind, key, "reading")
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, kind, key, "committing")
	}

	return record, nil
}

func (s sqlStore) UpsertStatus(ctx context.Context, kind Kind, key string, update Update) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, kind, key, "beginning a transaction for")
	}

	record, err := s.selectRecord(ctx, tx, kind, key, true)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return nil, classify(errors.Wrapf(rErr, "rollback when %s", err), kind, key, "locking")
		}
		return nil, classify(err, kind, key, "locking")
	}

	update.apply(record)
	record.UpdatedAt = s.now()

	query, args := s.updateQuery(kind, key, update, record.UpdatedAt)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return nil, classify(errors.Wrapf(rErr, "rollback when %s", err), kind, key, "updating")
		}
		return nil, classify(err, kind, key, "updating")
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, kind, key, "committing")
	}

	return record, nil
}

func (s sqlStore) FindByKey(ctx context.Context, kind Kind, key string) (*Record, error) {
	record, err := s.selectRecord(ctx, s.db, kind, key, false)
	if err != nil {
		return nil, classify(err, kind, key, "reading")
	}

	return record, nil
}

func (s sqlStore) ListAll(ctx context.Context, kind Kind) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at;", s.columns(kind), kind.table()))
	if err != nil {
		return nil, classify(err, kind, "*", "listing")
	}

	defer rows.Close()

	records := make([]*Record, 0)

	for rows.Next() {
		record, err := scanRecord(rows, kind)
		if err != nil {
			return nil, classify(err, kind, "*", "scanning")
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, kind, "*", "listing")
	}

	return records, nil
}

func (s sqlStore) Delete(ctx context.Context, kind Kind, key string) error {
	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("DELETE FROM %s WHERE %s=?;", kind.table(), kind.keyColumn())), key)
	if err != nil {
		return classify(err, kind, key, "deleting")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return classify(err, kind, key, "deleting")
	}

	if rows == 0 {
		return notFound(kind, key)
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s sqlStore) selectRecord(ctx context.Context, q queryRower, kind Kind, key string, forUpdate bool) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s=?", s.columns(kind), kind.table(), kind.keyColumn())
	if forUpdate {
		query += " FOR UPDATE"
	}

	return scanRecord(q.QueryRowContext(ctx, s.prepQuery(query+";"), key), kind)
}

func scanRecord(row scanner, kind Kind) (*Record, error) {
	var (
		record           = Record{Kind: kind}
		name, idpID      sql.NullString
		createdAt, updAt sql.NullTime
		status           string
	)

	if err := row.Scan(&record.ID, &record.Key, &name, &idpID, &status, &createdAt, &updAt); err != nil {
		return nil, err
	}

	record.Name = name.String
	record.IdpID = idpID.String
	record.Status = Status(status)
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updAt.Time

	return &record, nil
}

func (s sqlStore) columns(kind Kind) string {
	return fmt.Sprintf("id, %s, name, idp_id, status, created_at, updated_at", kind.keyColumn())
}

func (s sqlStore) upsertQuery(kind Kind) string {
	insert := fmt.Sprintf("INSERT INTO %s (id, %s, name, idp_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)", kind.table(), kind.keyColumn())

	if s.driver == database.PGDriver {
		return s.prepQuery(insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET name=EXCLUDED.name, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at;", kind.keyColumn()))
	}

	return insert + " ON DUPLICATE KEY UPDATE name=VALUES(name), status=VALUES(status), updated_at=VALUES(updated_at);"
}

// updateQuery writes only present fields, in a stable order
func (s sqlStore) updateQuery(kind Kind, key string, update Update, updatedAt time.Time) (string, []interface{}) {
	query := fmt.Sprintf("UPDATE %s SET", kind.table())

	var args []interface{}

	if name, ok := update.Name.Get(); ok {
		query += " name=?,"
		args = append(args, name)
	}

	if idpID, ok := update.IdpID.Get(); ok {
		query += " idp_id=?,"
		args = append(args, idpID)
	}

	if status, ok := update.Status.Get(); ok {
		query += " status=?,"
		args = append(args, status.String())
	}

	query += fmt.Sprintf(" updated_at=? WHERE %s=?;", kind.keyColumn())
	args = append(args, updatedAt, key)

	return s.prepQuery(query), args
}

func (s sqlStore) initTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})

	if err != nil {
		return errors.WithStack(err)
	}

	for _, kind := range []Kind{UserKind, OrganizationKind} {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`create table if not exists %v
	(
		id varchar(36) not null primary key,
		%v varchar(255) not null unique,
		name varchar(255) null,
		idp_id varchar(255) null,
		status varchar(32) not null,
		created_at timestamp null,
		updated_at timestamp null
	);`, kind.table(), kind.keyColumn()))

		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				return errors.Wrapf(rErr, "error rollback when %s", err)
			}
			return errors.WithStack(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (s sqlStore) prepQuery(query string) string {
	return database.Rebind(s.driver, query)
}
