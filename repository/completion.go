package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/models"
)

func lockedID(ctx context.Context, tx *sql.Tx, s *entsql.Selector) (string, error) {
	query, args := s.Query()
	if err := s.Err(); err != nil {
		return "", fmt.Errorf("lock task: %w", err)
	}

	var id string
	err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock task: %w", err)
	}
	return id, nil
}

// lockTask locks the owner's task row for the rest of the transaction.
func lockTask(ctx context.Context, tx *sql.Tx, d database.Dialect, taskID, ownerID string) (string, error) {
	b := d.Builder()
	t := b.Table("tasks").As("t")
	s := b.Select(t.C("id")).
		From(t).
		Where(entsql.And(entsql.EQ(t.C("id"), taskID), entsql.EQ(t.C("user_id"), ownerID)))
	return lockedID(ctx, tx, d.Lock(s, "t"))
}

// lockTaskOfSubtask resolves and locks the parent task of an owned subtask.
// Concurrent writers on sibling subtasks queue here, so each recomputation
// sees the previous one's committed state.
func lockTaskOfSubtask(ctx context.Context, tx *sql.Tx, d database.Dialect, subtaskID, ownerID string) (string, error) {
	b := d.Builder()
	t := b.Table("tasks").As("t")
	st := b.Table("subtasks").As("s")
	s := b.Select(t.C("id")).
		From(t).
		Join(st).On(st.C("task_id"), t.C("id")).
		Where(entsql.And(entsql.EQ(st.C("id"), subtaskID), entsql.EQ(t.C("user_id"), ownerID)))
	return lockedID(ctx, tx, d.Lock(s, "t"))
}

// markTaskIncomplete runs after a subtask is added: a task with a fresh,
// unfinished subtask is not done.
func markTaskIncomplete(ctx context.Context, tx *sql.Tx, b *entsql.DialectBuilder, taskID string) error {
	query, args := b.Update("tasks").Set("completed", false).Where(entsql.EQ("id", taskID)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark task incomplete: %w", err)
	}
	return nil
}

// recomputeTaskCompletion sets the task completed exactly when none of its
// subtasks is open. A task left without subtasks counts as completed.
func recomputeTaskCompletion(ctx context.Context, tx *sql.Tx, b *entsql.DialectBuilder, taskID string) error {
	pending := b.Select("id").
		From(b.Table("subtasks")).
		Where(entsql.And(entsql.EQ("task_id", taskID), entsql.EQ("completed", false)))

	query, args := b.Update("tasks").
		Set("completed", entsql.NotExists(pending)).
		Where(entsql.EQ("id", taskID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recompute task completion: %w", err)
	}
	return nil
}
