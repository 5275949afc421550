package suite

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/database"
	driverSql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/suite"
)

const (
	MysqlConnectionEnv = "MYSQL_CONNECTION"
	PgConnectionEnv    = "PG_CONNECTION"
)

// DBSuite connects to a database given by an environment variable and skips when it isn't set
type DBSuite struct {
	suite.Suite
	*sync.Mutex
	ctx    context.Context
	driver database.Driver
	env    string
	dbConn *sql.DB
}

func NewMysqlSuite() DBSuite {
	return DBSuite{driver: database.MYSQLDriver, env: MysqlConnectionEnv}
}

func NewPgSuite() DBSuite {
	return DBSuite{driver: database.PGDriver, env: PgConnectionEnv}
}

// SetupSuite setup at the beginning of test
func (t *DBSuite) SetupSuite() {
	t.Mutex = &sync.Mutex{}
	t.Mutex.Lock()
	defer t.Mutex.Unlock()

	dsn := os.Getenv(t.env)
	if dsn == "" {
		t.T().Skipf("%s is not set", t.env)
	}

	t.ctx = context.Background()
	t.disableLogging()

	ctx, cancel := context.WithTimeout(t.ctx, time.Second*30)
	defer cancel()

	db, err := database.Open(ctx, database.Config{
		Driver:       t.driver,
		DSN:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	t.Require().NoError(err)
	t.dbConn = db
}

func (t *DBSuite) Connection() *sql.DB {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	return t.dbConn
}

func (t *DBSuite) Driver() database.Driver {
	return t.driver
}

// TearDownSuite teardown at the end of test
func (t *DBSuite) TearDownSuite() {
	if t.dbConn == nil {
		return
	}

	t.Mutex.Lock()
	defer t.Mutex.Unlock()

	_, err := t.dbConn.Exec("DROP TABLE IF EXISTS saga_history, saga, users, organizations")
	t.Require().NoError(err)
	t.Require().NoError(t.dbConn.Close())
}

func (t *DBSuite) disableLogging() {
	if t.driver == database.MYSQLDriver {
		t.Require().NoError(driverSql.SetLogger(NopLogger{}))
	}
}

type NopLogger struct {
}

func (l NopLogger) Print(v ...interface{}) {}
