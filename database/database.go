// Package database opens the connection pool shared by the record store, the saga store and the saga mutex.
// The pool is owned by the hosting process, components receive it at construction.
package database

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pkg/errors"
)

const (
	MYSQLDriver Driver = "mysql"
	PGDriver    Driver = "pg"
)

// Driver is needed next to *sql.DB because of https://github.com/golang/go/issues/3602, placeholders differ per driver
type Driver string

// ParseDriver validates a driver name taken from configuration
func ParseDriver(driver string) (Driver, error) {
	switch Driver(driver) {
	case MYSQLDriver:
		return MYSQLDriver, nil
	case PGDriver, "postgres", "pgx":
		return PGDriver, nil
	default:
		return "", errors.Errorf("unsupported sql driver '%s', supported are mysql and pg", driver)
	}
}

func (d Driver) sqlDriverName() string {
	if d == PGDriver {
		return "pgx"
	}

	return "mysql"
}

type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open creates a pool and makes sure the database is reachable.
func Open(ctx context.Context, conf Config) (*sql.DB, error) {
	dsn, err := normalizeDSN(conf.Driver, conf.DSN)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	db, err := sql.Open(conf.Driver.sqlDriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s connection pool", conf.Driver)
	}

	if conf.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.MaxOpenConns)
	}

	if conf.MaxIdleConns > 0 {
		db.SetMaxIdleConns(conf.MaxIdleConns)
	}

	if conf.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(conf.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Wrapf(closeErr, "closing pool when %s", err)
		}
		return nil, errors.Wrapf(err, "pinging %s", conf.Driver)
	}

	return db, nil
}

// normalizeDSN forces parseTime for mysql, timestamps are scanned into time.Time
func normalizeDSN(driver Driver, dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("dsn is empty")
	}

	if driver != MYSQLDriver {
		return dsn, nil
	}

	mysqlConf, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parsing mysql dsn")
	}

	mysqlConf.ParseTime = true

	return mysqlConf.FormatDSN(), nil
}

// Rebind replaces wildcard params to specific driver. Standard wildcard is '?'
func Rebind(driver Driver, query string) string {
	if driver != PGDriver {
		return query
	}

	var res []byte

	counter := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			res = append(append(res, '$'), []byte(strconv.Itoa(counter))...)
			counter++

			continue
		}
		res = append(res, query[i])
	}

	return string(res)
}
