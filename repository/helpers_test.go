package repository

import (
	"context"
	"testing"
	"time"

	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/models"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a migrated in-memory SQLite database.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	t.Cleanup(func() { db.Close() })
	return db
}

// stepClock advances one second per call so creation order is unambiguous.
func stepClock() Clock {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

type fixture struct {
	db       *database.DB
	users    *UserRepository
	tasks    *TaskRepository
	subtasks *SubtaskRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	clock := stepClock()
	return &fixture{
		db:       db,
		users:    NewUserRepository(db, clock),
		tasks:    NewTaskRepository(db, clock),
		subtasks: NewSubtaskRepository(db, clock),
	}
}

func (f *fixture) user(t *testing.T, email string) string {
	t.Helper()
	u, err := f.users.Create(context.Background(), "tester", email, "hash")
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) task(t *testing.T, ownerID string, in models.NewTask) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), ownerID, in)
	require.NoError(t, err)
	return task
}

func (f *fixture) subtask(t *testing.T, taskID, ownerID, title string) *models.Subtask {
	t.Helper()
	s, err := f.subtasks.Create(context.Background(), taskID, ownerID, title)
	require.NoError(t, err)
	return s
}

// completed reads the stored flag of a task directly.
func (f *fixture) completed(t *testing.T, taskID string) bool {
	t.Helper()
	var done bool
	err := f.db.QueryRow("SELECT completed FROM tasks WHERE id = ?", taskID).Scan(&done)
	require.NoError(t, err)
	return done
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func date(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return &d
}
