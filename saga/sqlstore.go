package saga

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/pkg/errors"
)

type sqlStore struct {
	db     *sql.DB
	driver database.Driver
}

// NewSQLSagaStore creates sql saga store, it supports mysql and postgres drivers.
func NewSQLSagaStore(db *sql.DB, driver database.Driver) (Store, error) {
	s := &sqlStore{db: db, driver: driver}
	if err := s.initTables(); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for SQLSagaStore, driver %s", driver)
	}

	return s, nil
}

func (s sqlStore) Create(ctx context.Context, sagaInstance *Instance) error {
	input, retryPolicy, err := encodeInstance(sagaInstance)
	if err != nil {
		return errors.WithStack(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "beginning a transaction for saga %s", sagaInstance.ID)
	}

	_, err = tx.ExecContext(ctx, s.prepQuery(fmt.Sprintf("INSERT INTO %v (uid, name, task_queue, input, retry_policy, status, last_error, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);", sagaTableName)),
		sagaInstance.ID,
		sagaInstance.Name,
		sagaInstance.TaskQueue,
		input,
		retryPolicy,
		sagaInstance.Status.String(),
		sagaInstance.LastError,
		sagaInstance.StartedAt,
		sagaInstance.UpdatedAt,
	)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "rollback when %s", err)
		}
		return errors.Wrapf(err, "inserting saga instance %s", sagaInstance.ID)
	}

	for _, ev := range sagaInstance.History {
		if err := s.insertEvent(ctx, tx, sagaInstance.ID, ev); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				return errors.Wrapf(rErr, "rollback when %s", err)
			}
			return errors.WithStack(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "committing saga instance %s into the store", sagaInstance.ID)
	}

	return nil
}

func (s sqlStore) Update(ctx context.Context, sagaInstance *Instance) error {
	input, retryPolicy, err := encodeInstance(sagaInstance)
	if err != nil {
		return errors.Wrapf(err, "marshaling saga instance %s on update", sagaInstance.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = tx.ExecContext(ctx, s.prepQuery(fmt.Sprintf("UPDATE %v SET name=?, task_queue=?, input=?, retry_policy=?, status=?, last_error=?, started_at=?, updated_at=? WHERE uid=?;", sagaTableName)),
		sagaInstance.Name,
		sagaInstance.TaskQueue,
		input,
		retryPolicy,
		sagaInstance.Status.String(),
		sagaInstance.LastError,
		sagaInstance.StartedAt,
		sagaInstance.UpdatedAt,
		sagaInstance.ID,
	)

	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "error rollback when %s", err)
		}
		return errors.Wrapf(err, "updating saga instance %s", sagaInstance.ID)
	}

	eventsIDs, err := s.queryEventIDs(ctx, tx, sagaInstance.ID)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "rollback when %s", err)
		}
		return errors.WithStack(err)
	}

	for _, ev := range sagaInstance.History {
		if _, exists := eventsIDs[ev.UID]; exists {
			continue
		}

		if err := s.insertEvent(ctx, tx, sagaInstance.ID, ev); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				return errors.Wrapf(rErr, "rollback when %s", err)
			}
			return errors.WithStack(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "committing update of events for saga %s", sagaInstance.ID)
	}

	return nil
}

func (s sqlStore) AppendHistory(ctx context.Context, sagaId string, ev HistoryEvent) error {
	_, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("INSERT INTO %v (uid, saga_uid, name, outcome, attempt, error_text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);", sagaHistoryTableName)),
		ev.UID,
		sagaId,
		ev.Name,
		ev.Outcome,
		ev.Attempt,
		ev.Error,
		ev.CreatedAt,
	)

	if err != nil {
		return errors.Wrapf(err, "inserting history event %s for saga %s", ev.UID, sagaId)
	}

	return nil
}

func (s sqlStore) TransitionStatus(ctx context.Context, sagaId string, to Status, from ...Status) (bool, error) {
	if len(from) == 0 {
		return false, errors.Errorf("no source statuses given for transition of saga %s to %s", sagaId, to)
	}

	args := []interface{}{to.String(), time.Now().UTC().Round(time.Second), sagaId}
	for _, status := range from {
		args = append(args, status.String())
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")

	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("UPDATE %v SET status=?, updated_at=? WHERE uid=? AND status IN (%s);", sagaTableName, placeholders)), args...)
	if err != nil {
		return false, errors.Wrapf(err, "moving saga %s to %s", sagaId, to)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "getting response of status transition for saga %s", sagaId)
	}

	return rows > 0, nil
}

func (s sqlStore) GetById(ctx context.Context, sagaId string) (*Instance, error) {
	sagaData := sagaSqlModel{}
	err := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf("SELECT uid, name, task_queue, input, retry_policy, status, last_error, started_at, updated_at FROM %v WHERE uid=?;", sagaTableName)), sagaId).
		Scan(sagaData.fields()...)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "querying saga %s", sagaId)
	}

	sagaInstance, err := sagaData.instance()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	events, err := s.queryEvents(ctx, sagaId)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sagaInstance.History = events

	return sagaInstance, nil
}

func (s sqlStore) GetByFilter(ctx context.Context, filters ...FilterOption) (*InstancesBatch, error) {
	if len(filters) == 0 {
		return nil, errors.Errorf("no filters found, you have to specify at least one so result won't be whole store")
	}

	opts := &filterOptions{}

	for _, filter := range filters {
		filter(opts)
	}

	if opts.empty() {
		return nil, errors.Errorf("all specified filters are empty, you have to specify at least one so result won't be whole store")
	}

	var (
		args       []interface{}
		conditions []string
	)

	if opts.sagaId != "" {
		conditions = append(conditions, "uid = ?")
		args = append(args, opts.sagaId)
	}

	if opts.status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.status)
	}

	if opts.sagaName != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, opts.sagaName)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s%s;", sagaTableName, where)), args...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "counting sagas with filter")
	}

	query := fmt.Sprintf("SELECT uid, name, task_queue, input, retry_policy, status, last_error, started_at, updated_at FROM %s%s ORDER BY started_at, uid", sagaTableName, where)

	if opts.limit != nil {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", *opts.limit, *opts.offset)
	}

	rows, err := s.db.QueryContext(ctx, s.prepQuery(query+";"), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying sagas with filter")
	}

	defer rows.Close()

	var instances []*Instance

	for rows.Next() {
		sagaData := sagaSqlModel{}

		if err := rows.Scan(sagaData.fields()...); err != nil {
			return nil, errors.Wrap(err, "scanning saga row")
		}

		instance, err := sagaData.instance()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, instance := range instances {
		events, err := s.queryEvents(ctx, instance.ID)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		instance.History = events
	}

	return &InstancesBatch{Total: total, Items: instances}, nil
}

func (s sqlStore) Delete(ctx context.Context, sagaId string) error {
	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("DELETE FROM %v WHERE uid=?;", sagaTableName)), sagaId)
	if err != nil {
		return errors.Wrapf(err, "executing delete query for saga %s", sagaId)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "getting response of delete query for saga %s", sagaId)
	}

	if rows > 0 {
		return nil
	}

	return errors.Errorf("no saga instance %s found", sagaId)
}

func (s sqlStore) insertEvent(ctx context.Context, tx *sql.Tx, sagaId string, ev HistoryEvent) error {
	_, err := tx.ExecContext(ctx, s.prepQuery(fmt.Sprintf("INSERT INTO %v (uid, saga_uid, name, outcome, attempt, error_text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);", sagaHistoryTableName)),
		ev.UID,
		sagaId,
		ev.Name,
		ev.Outcome,
		ev.Attempt,
		ev.Error,
		ev.CreatedAt,
	)

	if err != nil {
		return errors.Wrapf(err, "inserting history event %s for saga %s", ev.UID, sagaId)
	}

	return nil
}

func (s sqlStore) queryEventIDs(ctx context.Context, tx *sql.Tx, sagaId string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, s.prepQuery(fmt.Sprintf("SELECT uid FROM %v WHERE saga_uid=?;", sagaHistoryTableName)), sagaId)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s for saga_uid %s", sagaHistoryTableName, sagaId)
	}

	defer rows.Close()

	var eventID string
	eventsIDs := make(map[string]struct{})

	for rows.Next() {
		if err := rows.Scan(&eventID); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}

		eventsIDs[eventID] = struct{}{}
	}

	return eventsIDs, errors.WithStack(rows.Err())
}

func (s sqlStore) queryEvents(ctx context.Context, sagaId string) ([]HistoryEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.prepQuery(fmt.Sprintf("SELECT uid, name, outcome, attempt, error_text, created_at FROM %v WHERE saga_uid=? ORDER BY created_at;", sagaHistoryTableName)), sagaId)
	if err != nil {
		return nil, errors.Wrapf(err, "querying events for saga %s", sagaId)
	}

	defer rows.Close()

	events := make([]HistoryEvent, 0)

	for rows.Next() {
		var (
			ev      HistoryEvent
			errText sql.NullString
		)

		if err := rows.Scan(&ev.UID, &ev.Name, &ev.Outcome, &ev.Attempt, &errText, &ev.CreatedAt); err != nil {
			return nil, errors.Wrapf(err, "scanning events for saga %s", sagaId)
		}

		ev.Error = errText.String
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return events, nil
}

func (s sqlStore) initTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("create table if not exists %v ( uid varchar(255) not null primary key, name varchar(255) not null, task_queue varchar(255) null, input text null, retry_policy text null, status varchar(255) not null, last_error text null, started_at timestamp null, updated_at timestamp null );", sagaTableName))

	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "error rollback when %s", err)
		}
		return errors.WithStack(err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("create table if not exists %v ( uid varchar(255) not null primary key, saga_uid varchar(255) not null, name varchar(255) not null, outcome varchar(255) not null, attempt int not null, error_text text null, created_at timestamp null, constraint saga_history_saga_model_id_fk foreign key (saga_uid) references %v (uid) on update cascade on delete cascade );", sagaHistoryTableName, sagaTableName))

	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "error rollback when %s", err)
		}
		return errors.WithStack(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (s sqlStore) prepQuery(query string) string {
	return database.Rebind(s.driver, query)
}

func encodeInstance(sagaInstance *Instance) ([]byte, []byte, error) {
	input, err := json.Marshal(sagaInstance.Input)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "marshaling input of saga %s", sagaInstance.ID)
	}

	retryPolicy, err := json.Marshal(sagaInstance.RetryPolicy)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "marshaling retry policy of saga %s", sagaInstance.ID)
	}

	return input, retryPolicy, nil
}

type sagaSqlModel struct {
	ID          string
	Name        string
	TaskQueue   sql.NullString
	Input       []byte
	RetryPolicy []byte
	Status      string
	LastError   sql.NullString
	StartedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}

func (m *sagaSqlModel) fields() []interface{} {
	return []interface{}{
		&m.ID,
		&m.Name,
		&m.TaskQueue,
		&m.Input,
		&m.RetryPolicy,
		&m.Status,
		&m.LastError,
		&m.StartedAt,
		&m.UpdatedAt,
	}
}

func (m sagaSqlModel) instance() (*Instance, error) {
	status, err := ParseStatus(m.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing status of %s", m.ID)
	}

	instance := &Instance{
		ID:        m.ID,
		Name:      m.Name,
		TaskQueue: m.TaskQueue.String,
		Status:    status,
		LastError: m.LastError.String,
		StartedAt: m.StartedAt.Time,
		UpdatedAt: m.UpdatedAt.Time,
		History:   make([]HistoryEvent, 0),
	}

	if len(m.Input) > 0 {
		if err := json.Unmarshal(m.Input, &instance.Input); err != nil {
			return nil, errors.Wrapf(err, "unmarshaling input of saga %s", m.ID)
		}
	}

	if len(m.RetryPolicy) > 0 {
		if err := json.Unmarshal(m.RetryPolicy, &instance.RetryPolicy); err != nil {
			return nil, errors.Wrapf(err, "unmarshaling retry policy of saga %s", m.ID)
		}
	}

	return instance, nil
}
