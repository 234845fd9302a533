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

// Clock supplies creation timestamps.
type Clock func() time.Time

// TaskRepository stores tasks. Every method is scoped by owner id.
type TaskRepository struct {
	db  *database.DB
	now Clock
}

func NewTaskRepository(db *database.DB, now Clock) *TaskRepository {
	if now == nil {
		now = time.Now
	}
	return &TaskRepository{db: db, now: now}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.Priority, &t.DueDate, &t.UserID, timestamp{&t.CreatedAt}); err != nil {
		return nil, err
	}
	t.Subtasks = []models.Subtask{}
	return &t, nil
}

// List returns the owner's tasks matching f, each with its subtasks.
func (r *TaskRepository) List(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error) {
	query, args := taskListQuery(r.db.Dialect.Builder(), ownerID, f).Query()

	tasks, err := r.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	subtasks, err := r.subtasksByTask(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if s, ok := subtasks[tasks[i].ID]; ok {
			tasks[i].Subtasks = s
		}
	}
	return tasks, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// subtasksByTask loads every subtask of the owner grouped by parent id.
func (r *TaskRepository) subtasksByTask(ctx context.Context, ownerID string) (map[string][]models.Subtask, error) {
	query, args := subtasksOfOwner(r.db.Dialect.Builder(), ownerID).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]models.Subtask)
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		grouped[s.TaskID] = append(grouped[s.TaskID], *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return grouped, nil
}

// GetByID returns models.ErrNotFound when the task is missing or not owned by ownerID.
func (r *TaskRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Task, error) {
	b := r.db.Dialect.Builder()
	query, args := b.Select(taskColumns...).From(b.Table("tasks")).Where(ownedTask(id, ownerID)).Query()

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	subtasks, err := listSubtasks(ctx, r.db.DB, r.db.Dialect.Builder(), id, ownerID)
	if err != nil {
		return nil, err
	}
	task.Subtasks = subtasks
	return task, nil
}

// Create validates and inserts a new task for ownerID.
func (r *TaskRepository) Create(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error) {
	title, err := models.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, models.NewValidationError("priority must be one of low, medium, high")
	}

	task := &models.Task{
		ID:          utils.NewID(),
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate,
		UserID:      ownerID,
		CreatedAt:   r.now().UTC(),
		Subtasks:    []models.Subtask{},
	}

	query, args := r.db.Dialect.Builder().Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.Title, task.Description, task.Completed, string(task.Priority), task.DueDate, task.UserID, task.CreatedAt).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Update applies changes to the owner's task. Omitted optional fields are kept.
func (r *TaskRepository) Update(ctx context.Context, id, ownerID string, c models.TaskChanges) (*models.Task, error) {
	title, err := models.ValidateTitle(c.Title)
	if err != nil {
		return nil, err
	}

	q := r.db.Dialect.Builder().Update("tasks").Set("title", title)
	switch {
	case c.ClearDescription:
		q.SetNull("description")
	case c.Description != nil:
		q.Set("description", *c.Description)
	}
	if c.Completed != nil {
		q.Set("completed", *c.Completed)
	}
	if c.Priority != nil {
		if !c.Priority.Valid() {
			return nil, models.NewValidationError("priority must be one of low, medium, high")
		}
		q.Set("priority", string(*c.Priority))
	}
	switch {
	case c.ClearDueDate:
		q.SetNull("due_date")
	case c.DueDate != nil:
		q.Set("due_date", *c.DueDate)
	}

	query, args := q.Where(ownedTask(id, ownerID)).Returning(taskColumns...).Query()
	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	subtasks, err := listSubtasks(ctx, r.db.DB, r.db.Dialect.Builder(), id, ownerID)
	if err != nil {
		return nil, err
	}
	task.Subtasks = subtasks
	return task, nil
}

// Delete removes the owner's task; its subtasks go with it.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	query, args := r.db.Dialect.Builder().Delete("tasks").Where(ownedTask(id, ownerID)).Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ToggleCompleted flips the completed flag of the owner's task.
func (r *TaskRepository) ToggleCompleted(ctx context.Context, id, ownerID string) (*models.Task, error) {
	query, args := r.db.Dialect.Builder().Update("tasks").
		Set("completed", entsql.Expr("NOT completed")).
		Where(ownedTask(id, ownerID)).
		Returning(taskColumns...).
		Query()

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	subtasks, err := listSubtasks(ctx, r.db.DB, r.db.Dialect.Builder(), id, ownerID)
	if err != nil {
		return nil, err
	}
	task.Subtasks = subtasks
	return task, nil
}
