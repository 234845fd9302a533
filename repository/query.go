package repository

import (
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/biosecret/go-tasks/models"
)

var (
	taskColumns    = []string{"id", "title", "description", "completed", "priority", "due_date", "user_id", "created_at"}
	subtaskColumns = []string{"id", "task_id", "title", "completed", "created_at"}
)

// taskListQuery turns a filter into the listing statement for ownerID.
func taskListQuery(b *entsql.DialectBuilder, ownerID string, f models.TaskFilter) *entsql.Selector {
	preds := []*entsql.Predicate{entsql.EQ("user_id", ownerID)}

	if f.Completed != nil {
		preds = append(preds, entsql.EQ("completed", *f.Completed))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("title", term),
			entsql.ContainsFold("description", term),
		))
	}
	if f.Priority != "" {
		preds = append(preds, entsql.EQ("priority", string(f.Priority)))
	}
	if f.DueDate != nil {
		preds = append(preds, entsql.EQ("due_date", *f.DueDate))
	}

	q := b.Select(taskColumns...).
		From(b.Table("tasks")).
		Where(entsql.And(preds...))
	return orderTasks(q, f.Sort)
}

const (
	rankHighFirst = "CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 END ASC"
	rankLowFirst  = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END ASC"
	nullsLast     = "(due_date IS NULL) ASC"
)

func orderTasks(q *entsql.Selector, key models.SortKey) *entsql.Selector {
	switch key {
	case models.SortOldest:
		return q.OrderBy(entsql.Asc("created_at"))
	case models.SortPriorityHigh:
		return q.OrderExpr(entsql.Expr(rankHighFirst)).OrderBy(entsql.Desc("created_at"))
	case models.SortPriorityLow:
		return q.OrderExpr(entsql.Expr(rankLowFirst)).OrderBy(entsql.Desc("created_at"))
	case models.SortDueSoon:
		return q.OrderExpr(entsql.Expr(nullsLast)).OrderBy(entsql.Asc("due_date"), entsql.Desc("created_at"))
	case models.SortDueLate:
		return q.OrderExpr(entsql.Expr(nullsLast)).OrderBy(entsql.Desc("due_date"), entsql.Desc("created_at"))
	default:
		return q.OrderBy(entsql.Desc("created_at"))
	}
}

// ownedTask matches the task id only when it belongs to ownerID.
func ownedTask(id, ownerID string) *entsql.Predicate {
	return entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", ownerID))
}

// ownedByParent limits subtasks to those under a task of ownerID.
func ownedByParent(b *entsql.DialectBuilder, ownerID string) *entsql.Predicate {
	return entsql.In("task_id",
		b.Select("id").From(b.Table("tasks")).Where(entsql.EQ("user_id", ownerID)),
	)
}

// ownedSubtask matches one subtask whose parent task belongs to ownerID.
func ownedSubtask(b *entsql.DialectBuilder, subtaskID, ownerID string) *entsql.Predicate {
	return entsql.And(entsql.EQ("id", subtaskID), ownedByParent(b, ownerID))
}

// subtasksOfOwner selects the owner's subtasks oldest first. Callers narrow
// it further with Where.
func subtasksOfOwner(b *entsql.DialectBuilder, ownerID string) *entsql.Selector {
	s := b.Table("subtasks").As("s")
	t := b.Table("tasks").As("t")
	return b.Select(s.Columns(subtaskColumns...)...).
		From(s).
		Join(t).On(s.C("task_id"), t.C("id")).
		Where(entsql.EQ(t.C("user_id"), ownerID)).
		OrderBy(entsql.Asc(s.C("created_at")), entsql.Asc(s.C("id")))
}
