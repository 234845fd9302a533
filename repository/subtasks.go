package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/utils"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SubtaskRepository stores subtasks and keeps the parent task's completed
// flag consistent with them.
type SubtaskRepository struct {
	db  *database.DB
	now Clock
}

func NewSubtaskRepository(db *database.DB, now Clock) *SubtaskRepository {
	if now == nil {
		now = time.Now
	}
	return &SubtaskRepository{db: db, now: now}
}

func scanSubtask(row scanner) (*models.Subtask, error) {
	var s models.Subtask
	if err := row.Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, timestamp{&s.CreatedAt}); err != nil {
		return nil, err
	}
	return &s, nil
}

func listSubtasks(ctx context.Context, q queryer, b *entsql.DialectBuilder, taskID, ownerID string) ([]models.Subtask, error) {
	sel := subtasksOfOwner(b, ownerID)
	query, args := sel.Where(entsql.EQ(sel.C("task_id"), taskID)).Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []models.Subtask{}
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subtasks = append(subtasks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// ListForTask returns the subtasks oldest first, or none when the task is
// missing or owned by someone else.
func (r *SubtaskRepository) ListForTask(ctx context.Context, taskID, ownerID string) ([]models.Subtask, error) {
	return listSubtasks(ctx, r.db.DB, r.db.Dialect.Builder(), taskID, ownerID)
}

// Create adds a subtask under the owner's task and marks the task incomplete.
func (r *SubtaskRepository) Create(ctx context.Context, taskID, ownerID, title string) (*models.Subtask, error) {
	title, err := models.ValidateTitle(title)
	if err != nil {
		return nil, err
	}

	b := r.db.Dialect.Builder()

	var created *models.Subtask
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// The lock also proves the task belongs to the owner.
		if _, err := lockTask(ctx, tx, r.db.Dialect, taskID, ownerID); err != nil {
			return err
		}

		query, args := b.Insert("subtasks").
			Columns(subtaskColumns...).
			Values(utils.NewID(), taskID, title, false, r.now().UTC()).
			Returning(subtaskColumns...).
			Query()
		s, err := scanSubtask(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return fmt.Errorf("create subtask: %w", err)
		}
		created = s

		return markTaskIncomplete(ctx, tx, b, taskID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Toggle flips the subtask's completed flag and recomputes the parent task.
func (r *SubtaskRepository) Toggle(ctx context.Context, subtaskID, ownerID string) (*models.Subtask, error) {
	b := r.db.Dialect.Builder()

	var toggled *models.Subtask
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		taskID, err := lockTaskOfSubtask(ctx, tx, r.db.Dialect, subtaskID, ownerID)
		if err != nil {
			return err
		}

		query, args := b.Update("subtasks").
			Set("completed", entsql.Expr("NOT completed")).
			Where(ownedSubtask(b, subtaskID, ownerID)).
			Returning(subtaskColumns...).
			Query()
		s, err := scanSubtask(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("toggle subtask: %w", err)
		}
		toggled = s

		return recomputeTaskCompletion(ctx, tx, b, taskID)
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// Update applies a partial change. With no field set it does nothing and
// returns a nil subtask.
func (r *SubtaskRepository) Update(ctx context.Context, subtaskID, ownerID string, c models.SubtaskChanges) (*models.Subtask, error) {
	if c.Empty() {
		return nil, nil
	}

	b := r.db.Dialect.Builder()
	q := b.Update("subtasks")
	if c.Title != nil {
		title, err := models.ValidateTitle(*c.Title)
		if err != nil {
			return nil, err
		}
		q.Set("title", title)
	}
	if c.Completed != nil {
		q.Set("completed", *c.Completed)
	}
	query, args := q.Where(ownedSubtask(b, subtaskID, ownerID)).Returning(subtaskColumns...).Query()

	var updated *models.Subtask
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		taskID, err := lockTaskOfSubtask(ctx, tx, r.db.Dialect, subtaskID, ownerID)
		if err != nil {
			return err
		}

		s, err := scanSubtask(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update subtask: %w", err)
		}
		updated = s

		return recomputeTaskCompletion(ctx, tx, b, taskID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the subtask, recomputes the parent task and returns the
// parent's id.
func (r *SubtaskRepository) Delete(ctx context.Context, subtaskID, ownerID string) (string, error) {
	b := r.db.Dialect.Builder()

	var parentID string
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		taskID, err := lockTaskOfSubtask(ctx, tx, r.db.Dialect, subtaskID, ownerID)
		if err != nil {
			return err
		}

		query, args := b.Delete("subtasks").Where(ownedSubtask(b, subtaskID, ownerID)).Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete subtask: %w", err)
		}
		count, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete subtask: %w", err)
		}
		if count == 0 {
			return models.ErrNotFound
		}
		parentID = taskID

		return recomputeTaskCompletion(ctx, tx, b, taskID)
	})
	if err != nil {
		return "", err
	}
	return parentID, nil
}
