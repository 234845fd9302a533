package database

import (
	"database/sql"
	"errors"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
)

const pgUniqueViolation = "23505"

type postgres struct{}

// Postgres is the production dialect, served by pgx through database/sql.
var Postgres Dialect = postgres{}

func (postgres) Name() string       { return "PostgreSQL" }
func (postgres) DriverName() string { return "pgx" }

func (postgres) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func (postgres) Lock(s *entsql.Selector, table string) *entsql.Selector {
	return s.ForUpdate(entsql.WithLockTables(table))
}

func (postgres) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

func (postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (postgres) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(50) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(50) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			priority VARCHAR(10) NOT NULL DEFAULT 'medium'
				CHECK (priority IN ('low', 'medium', 'high')),
			due_date DATE,
			user_id VARCHAR(50) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_user_id_idx ON tasks (user_id)`,
		`CREATE TABLE IF NOT EXISTS subtasks (
			id VARCHAR(50) PRIMARY KEY,
			task_id VARCHAR(50) NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS subtasks_task_id_idx ON subtasks (task_id)`,
	}
}
