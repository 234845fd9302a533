package repository

import (
	"context"
	"testing"

	"github.com/biosecret/go-tasks/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	task := f.task(t, owner, models.NewTask{Title: "  Buy milk  "})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.Nil(t, task.Description)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, owner, task.UserID)
	assert.Empty(t, task.Subtasks)

	stored, err := f.tasks.GetByID(context.Background(), task.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, task.Title, stored.Title)
	assert.True(t, task.CreatedAt.Equal(stored.CreatedAt))
}

func TestTaskRepository_CreateRejectsBlankTitle(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	_, err := f.tasks.Create(context.Background(), owner, models.NewTask{Title: "   "})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, 0, f.count(t, "tasks"))
}

func TestTaskRepository_CreateRejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	_, err := f.tasks.Create(context.Background(), owner, models.NewTask{Title: "x", Priority: "urgent"})
	assert.True(t, models.IsValidation(err))
}

func TestTaskRepository_OwnerIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	mine := f.task(t, alice, models.NewTask{Title: "Alice task"})
	f.task(t, bob, models.NewTask{Title: "Bob task"})

	tasks, err := f.tasks.List(ctx, alice, models.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice task"}, titles(tasks))

	_, err = f.tasks.GetByID(ctx, mine.ID, bob)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.tasks.Update(ctx, mine.ID, bob, models.TaskChanges{Title: "stolen"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.tasks.ToggleCompleted(ctx, mine.ID, bob)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.tasks.Delete(ctx, mine.ID, bob)
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := f.tasks.GetByID(ctx, mine.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice task", stored.Title)
	assert.False(t, stored.Completed)
}

func TestTaskRepository_ListSortsByPriority(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	f.task(t, owner, models.NewTask{Title: "low", Priority: models.PriorityLow})
	f.task(t, owner, models.NewTask{Title: "high older", Priority: models.PriorityHigh})
	f.task(t, owner, models.NewTask{Title: "medium", Priority: models.PriorityMedium})
	f.task(t, owner, models.NewTask{Title: "high newer", Priority: models.PriorityHigh})

	tests := []struct {
		sort models.SortKey
		want []string
	}{
		{models.SortPriorityHigh, []string{"high newer", "high older", "medium", "low"}},
		{models.SortPriorityLow, []string{"low", "medium", "high newer", "high older"}},
		{models.SortNewest, []string{"high newer", "medium", "high older", "low"}},
		{models.SortOldest, []string{"low", "high older", "medium", "high newer"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			tasks, err := f.tasks.List(context.Background(), owner, models.TaskFilter{Sort: tt.sort})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(tasks))
		})
	}
}

func TestTaskRepository_ListSortsByDueDate(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	f.task(t, owner, models.NewTask{Title: "march", DueDate: date(t, "2024-03-01")})
	f.task(t, owner, models.NewTask{Title: "undated older"})
	f.task(t, owner, models.NewTask{Title: "february", DueDate: date(t, "2024-02-01")})
	f.task(t, owner, models.NewTask{Title: "undated newer"})

	soon, err := f.tasks.List(context.Background(), owner, models.TaskFilter{Sort: models.SortDueSoon})
	require.NoError(t, err)
	assert.Equal(t, []string{"february", "march", "undated newer", "undated older"}, titles(soon))

	late, err := f.tasks.List(context.Background(), owner, models.TaskFilter{Sort: models.SortDueLate})
	require.NoError(t, err)
	assert.Equal(t, []string{"march", "february", "undated newer", "undated older"}, titles(late))
}

func TestTaskRepository_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "a@example.com")

	report := f.task(t, owner, models.NewTask{Title: "Quarterly REPORT", Priority: models.PriorityHigh})
	f.task(t, owner, models.NewTask{Title: "Groceries", Description: ptr("weekly report of spending"), DueDate: date(t, "2024-06-01")})
	f.task(t, owner, models.NewTask{Title: "50% done"})
	f.task(t, owner, models.NewTask{Title: "500 done"})
	f.task(t, owner, models.NewTask{Title: "École trip"})

	_, err := f.tasks.ToggleCompleted(ctx, report.ID, owner)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   []string
	}{
		{"search title and description ignoring case", models.TaskFilter{Search: "report"}, []string{"Groceries", "Quarterly REPORT"}},
		{"search treats percent literally", models.TaskFilter{Search: "50%"}, []string{"50% done"}},
		{"search folds non-ASCII case", models.TaskFilter{Search: "école"}, []string{"École trip"}},
		{"search folds non-ASCII upper case", models.TaskFilter{Search: "ÉCOLE TRIP"}, []string{"École trip"}},
		{"blank search is ignored", models.TaskFilter{Search: "   "}, []string{"École trip", "500 done", "50% done", "Groceries", "Quarterly REPORT"}},
		{"completed", models.TaskFilter{Completed: ptr(true)}, []string{"Quarterly REPORT"}},
		{"not completed", models.TaskFilter{Completed: ptr(false)}, []string{"École trip", "500 done", "50% done", "Groceries"}},
		{"priority", models.TaskFilter{Priority: models.PriorityHigh}, []string{"Quarterly REPORT"}},
		{"due date", models.TaskFilter{DueDate: date(t, "2024-06-01")}, []string{"Groceries"}},
		{"combined", models.TaskFilter{Search: "report", Completed: ptr(false)}, []string{"Groceries"}},
		{"no match", models.TaskFilter{Search: "nothing like this"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.tasks.List(ctx, owner, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(tasks))
		})
	}
}

func TestTaskRepository_ListIncludesSubtasks(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")

	task := f.task(t, owner, models.NewTask{Title: "parent"})
	f.task(t, owner, models.NewTask{Title: "childless"})
	f.subtask(t, task.ID, owner, "first")
	f.subtask(t, task.ID, owner, "second")

	tasks, err := f.tasks.List(context.Background(), owner, models.TaskFilter{Sort: models.SortOldest})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	require.Len(t, tasks[0].Subtasks, 2)
	assert.Equal(t, "first", tasks[0].Subtasks[0].Title)
	assert.Equal(t, "second", tasks[0].Subtasks[1].Title)
	assert.NotNil(t, tasks[1].Subtasks)
	assert.Empty(t, tasks[1].Subtasks)
}

func TestTaskRepository_UpdateKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "a@example.com")

	task := f.task(t, owner, models.NewTask{
		Title:       "Draft",
		Description: ptr("first pass"),
		Priority:    models.PriorityHigh,
		DueDate:     date(t, "2024-04-01"),
	})

	updated, err := f.tasks.Update(ctx, task.ID, owner, models.TaskChanges{Title: " Final "})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "first pass", *updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2024-04-01", updated.DueDate.String())
	assert.False(t, updated.Completed)

	updated, err = f.tasks.Update(ctx, task.ID, owner, models.TaskChanges{
		Title:        "Final",
		Completed:    ptr(true),
		Priority:     ptr(models.PriorityLow),
		ClearDueDate: true,
	})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.Nil(t, updated.DueDate)
	require.NotNil(t, updated.Description)
}

func TestTaskRepository_UpdateClearsDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "a@example.com")
	task := f.task(t, owner, models.NewTask{Title: "Draft", Description: ptr("first pass")})

	updated, err := f.tasks.Update(ctx, task.ID, owner, models.TaskChanges{Title: "Draft", Description: ptr("second pass")})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "second pass", *updated.Description)

	updated, err = f.tasks.Update(ctx, task.ID, owner, models.TaskChanges{Title: "Draft", ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)

	stored, err := f.tasks.GetByID(ctx, task.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, stored.Description)
}

func TestTaskRepository_UpdateRejectsBlankTitle(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	task := f.task(t, owner, models.NewTask{Title: "keep"})

	_, err := f.tasks.Update(context.Background(), task.ID, owner, models.TaskChanges{Title: ""})
	assert.True(t, models.IsValidation(err))

	stored, err := f.tasks.GetByID(context.Background(), task.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "keep", stored.Title)
}

func TestTaskRepository_ToggleCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "a@example.com")
	task := f.task(t, owner, models.NewTask{Title: "flip"})

	toggled, err := f.tasks.ToggleCompleted(ctx, task.ID, owner)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = f.tasks.ToggleCompleted(ctx, task.ID, owner)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestTaskRepository_DeleteCascadesSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "a@example.com")

	task := f.task(t, owner, models.NewTask{Title: "doomed"})
	f.subtask(t, task.ID, owner, "one")
	f.subtask(t, task.ID, owner, "two")
	require.Equal(t, 2, f.count(t, "subtasks"))

	require.NoError(t, f.tasks.Delete(ctx, task.ID, owner))
	assert.Equal(t, 0, f.count(t, "subtasks"))

	_, err := f.tasks.GetByID(ctx, task.ID, owner)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.tasks.Delete(ctx, task.ID, owner)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
