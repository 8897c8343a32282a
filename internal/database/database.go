package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	// Registered drivers for the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/mkoster/querylens/internal/errors"
)

// Dialect identifies the SQL dialect of a connection
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
)

// PoolConfig controls the connection pool behind a DB
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the pool settings used when none are supplied
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// DB wraps a pooled sql.DB together with its resolved dialect
type DB struct {
	sqlDB   *sql.DB
	dialect Dialect
}

// Open connects to the database described by the connection string, applies
// pool limits, and verifies the connection with a ping before handing it out.
func Open(connectionString string, pool PoolConfig) (*DB, error) {
	dialect, driverName, dsn := resolveDriver(connectionString)

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.NewConnectionError("failed to open database", err)
	}

	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.NewConnectionError("failed to ping database", err)
	}

	return &DB{sqlDB: sqlDB, dialect: dialect}, nil
}

// resolveDriver maps a connection string onto (dialect, driver name, DSN).
// Postgres and MySQL are recognized by URL scheme or DSN shape; DuckDB and
// SQLite by scheme or file extension. Anything else is treated as a SQLite
// file path.
func resolveDriver(connectionString string) (Dialect, string, string) {
	s := strings.TrimSpace(connectionString)
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres, "postgres", s
	case strings.HasPrefix(lower, "mysql://"):
		return DialectMySQL, "mysql", s[len("mysql://"):]
	case strings.Contains(s, "@tcp("):
		return DialectMySQL, "mysql", s
	case strings.HasPrefix(lower, "duckdb://"):
		return DialectDuckDB, "duckdb", s[len("duckdb://"):]
	case strings.HasSuffix(lower, ".duckdb"):
		return DialectDuckDB, "duckdb", s
	case strings.HasPrefix(lower, "sqlite://"):
		return DialectSQLite, "sqlite", s[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return DialectSQLite, "sqlite", s[len("sqlite:"):]
	default:
		return DialectSQLite, "sqlite", s
	}
}

// NewFromSQL wraps an already-open handle with an explicit dialect. Used for
// tests and for callers that manage their own pool.
func NewFromSQL(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{sqlDB: sqlDB, dialect: dialect}
}

// Dialect returns the resolved dialect
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// SQL exposes the underlying pooled handle
func (d *DB) SQL() *sql.DB {
	return d.sqlDB
}

// Close closes the connection pool
func (d *DB) Close() error {
	return d.sqlDB.Close()
}

// Introspector returns the dialect-appropriate schema introspector
func (d *DB) Introspector() Introspector {
	switch d.dialect {
	case DialectMySQL:
		return &mysqlIntrospector{db: d.sqlDB}
	case DialectPostgres:
		return &postgresIntrospector{db: d.sqlDB}
	case DialectDuckDB:
		return &duckdbIntrospector{db: d.sqlDB}
	default:
		return &sqliteIntrospector{db: d.sqlDB}
	}
}

// ResultSet holds the outcome of a SQL query execution
type ResultSet struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Executor is the thin execution boundary the query engine depends on
type Executor interface {
	Execute(ctx context.Context, sqlString string) (*ResultSet, error)
}

// Execute runs a query and materializes every row. Driver []byte values are
// converted to strings so results marshal cleanly to JSON.
func (d *DB) Execute(ctx context.Context, sqlString string) (*ResultSet, error) {
	return ExecuteOn(ctx, d.sqlDB, sqlString)
}

// ExecuteOn runs a query against any sql.DB handle
func ExecuteOn(ctx context.Context, db *sql.DB, sqlString string) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, sqlString)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "query execution failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to read result columns")
	}

	result := &ResultSet{Columns: columns, Rows: [][]interface{}{}}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to scan result row")
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "result iteration failed")
	}

	return result, nil
}
