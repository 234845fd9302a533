package database

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Dialect hides the SQL differences between the supported stores.
type Dialect interface {
	Name() string
	// DriverName is the database/sql driver registered for the dialect.
	DriverName() string
	// Builder starts statements rendered for the dialect.
	Builder() *entsql.DialectBuilder
	// Lock makes s hold the rows of table until commit, where the store supports it.
	Lock(s *entsql.Selector, table string) *entsql.Selector
	TxOptions() *sql.TxOptions
	IsUniqueViolation(err error) bool
	Schema() []string
}

// DB is a connection pool bound to one dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DialectFor resolves a configured driver name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", name)
}

// Open connects to the store and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("you must set your 'POSTGRESQL_URI' environmental variable")
	}

	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if d == SQLite {
		dsn = sqliteDSN(dsn)
	}

	sqlDB, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if d == SQLite {
		// An in-memory database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("cannot connect to %s: %w", d.Name(), err)
	}

	return &DB{DB: sqlDB, Dialect: d}, nil
}

// Migrate creates the tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.Dialect.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// WithTx runs fn in a transaction, committing only when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, db.Dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
