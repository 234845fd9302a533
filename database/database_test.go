package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql", "pgx"} {
		d, err := DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, Postgres, d)
	}
	for _, name := range []string{"sqlite", "sqlite3"} {
		d, err := DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, SQLite, d)
	}

	_, err := DialectFor("mysql")
	assert.Error(t, err)
}

func TestBuilderDialects(t *testing.T) {
	pg, pgArgs := Postgres.Builder().Select("id").From(entsql.Table("tasks")).Where(entsql.EQ("user_id", "u1")).Query()
	assert.Equal(t, `SELECT "id" FROM "tasks" WHERE "user_id" = $1`, pg)
	assert.Equal(t, []any{"u1"}, pgArgs)

	lite, _ := SQLite.Builder().Select("id").From(entsql.Table("tasks")).Where(entsql.EQ("user_id", "u1")).Query()
	assert.Equal(t, "SELECT `id` FROM `tasks` WHERE `user_id` = ?", lite)
}

func TestLock(t *testing.T) {
	lock := func(d Dialect) string {
		b := d.Builder()
		q, _ := d.Lock(b.Select("id").From(b.Table("tasks")), "tasks").Query()
		return q
	}

	assert.Equal(t, `SELECT "id" FROM "tasks" FOR UPDATE OF "tasks"`, lock(Postgres))
	assert.Equal(t, "SELECT `id` FROM `tasks`", lock(SQLite))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "file:tasks.db?_foreign_keys=on", sqliteDSN("tasks.db"))
	assert.Equal(t, "file:tasks.db?cache=shared&_foreign_keys=on", sqliteDSN("file:tasks.db?cache=shared"))
	assert.Equal(t, "tasks.db?_fk=1", sqliteDSN("tasks.db?_fk=1"))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "")
	assert.Error(t, err)
}

func openMemory(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Migrate(context.Background()))

	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'tasks', 'subtasks')").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWithTx(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	insert := "INSERT INTO users (id, username, email, password, created_at) VALUES (?, 'u', ?, 'p', CURRENT_TIMESTAMP)"

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insert, "kept", "kept@example.com")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "dropped", "dropped@example.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openMemory(t)

	_, err := db.Exec("INSERT INTO tasks (id, title, user_id, created_at) VALUES ('t1', 'x', 'ghost', CURRENT_TIMESTAMP)")
	assert.Error(t, err)
}

func TestSQLiteUniqueViolation(t *testing.T) {
	db := openMemory(t)
	insert := "INSERT INTO users (id, username, email, password, created_at) VALUES (?, 'u', 'dup@example.com', 'p', CURRENT_TIMESTAMP)"

	_, err := db.Exec(insert, "a")
	require.NoError(t, err)

	_, err = db.Exec(insert, "b")
	require.Error(t, err)
	assert.True(t, SQLite.IsUniqueViolation(err))
	assert.False(t, SQLite.IsUniqueViolation(errors.New("other")))
	assert.False(t, SQLite.IsUniqueViolation(nil))
}

func TestFoldLower(t *testing.T) {
	assert.Equal(t, "école", foldLower("École"))
	assert.Equal(t, "straße", foldLower([]byte("STRAßE")))
	assert.Nil(t, foldLower([]byte(nil)))
	assert.Equal(t, int64(7), foldLower(int64(7)))
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	db := openMemory(t)

	var lowered string
	require.NoError(t, db.QueryRow("SELECT LOWER(?)", "ÉCOLE Ünïcode").Scan(&lowered))
	assert.Equal(t, "école ünïcode", lowered)

	var null sql.NullString
	require.NoError(t, db.QueryRow("SELECT LOWER(NULL)").Scan(&null))
	assert.False(t, null.Valid)
}
