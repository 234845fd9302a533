package handlers

import (
	"errors"
	"fmt"

	"github.com/biosecret/go-tasks/events"
	"github.com/biosecret/go-tasks/models"
	"github.com/gofiber/fiber/v2"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	DueDateAlt  *string `json:"dueDate"`
}

// updateTaskRequest tells an omitted description or due date, which is kept,
// from an explicit null, which clears it.
type updateTaskRequest struct {
	Title       string         `json:"title"`
	Description optionalString `json:"description" swaggertype:"string"`
	Completed   *bool          `json:"completed"`
	Priority    *string        `json:"priority"`
	DueDate     optionalString `json:"due_date" swaggertype:"string"`
	DueDateAlt  optionalString `json:"dueDate" swaggertype:"string"`
}

// taskNotFound names the resource in not-found messages.
func taskNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("task %w", err)
	}
	return err
}

// parseTaskFilter reads the listing query string. Unknown sort keys fall
// back to newest; completed is tri-state.
func parseTaskFilter(c *fiber.Ctx) (models.TaskFilter, error) {
	f := models.TaskFilter{
		Search: c.Query("search"),
		Sort:   models.ParseSortKey(c.Query("sort")),
	}

	switch c.Query("completed") {
	case "true":
		completed := true
		f.Completed = &completed
	case "false":
		completed := false
		f.Completed = &completed
	}

	if p := c.Query("priority"); p != "" {
		priority, err := models.ParsePriority(p)
		if err != nil {
			return f, err
		}
		f.Priority = priority
	}

	due := c.Query("dueDate")
	if due == "" {
		due = c.Query("due_date")
	}
	dueDate, err := parseOptionalDate(&due)
	if err != nil {
		return f, err
	}
	f.DueDate = dueDate

	return f, nil
}

// HandleAllTasks godoc
// @Summary  List the caller's tasks
// @Tags     tasks
// @Produce  json
// @Param    search    query string false "Substring of title or description"
// @Param    sort      query string false "newest, oldest, priority-high, priority-low, due-soon, due-late"
// @Param    completed query string false "true or false"
// @Param    priority  query string false "low, medium or high"
// @Param    dueDate   query string false "YYYY-MM-DD"
// @Success  200 {array} models.Task
// @Security BearerAuth
// @Router   /tasks [get]
func (h *Handler) HandleAllTasks(c *fiber.Ctx) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}

	tasks, err := h.Tasks.List(c.UserContext(), owner(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// HandleGetOneTask godoc
// @Summary  Get one task with its subtasks
// @Tags     tasks
// @Produce  json
// @Param    id path string true "Task ID"
// @Success  200 {object} models.Task
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks/{id} [get]
func (h *Handler) HandleGetOneTask(c *fiber.Ctx) error {
	task, err := h.Tasks.GetByID(c.UserContext(), c.Params("id"), owner(c))
	if err != nil {
		return taskNotFound(err)
	}
	return c.JSON(task)
}

// HandleCreateTask godoc
// @Summary  Create a task
// @Tags     tasks
// @Accept   json
// @Produce  json
// @Param    body body createTaskRequest true "Task"
// @Success  201 {object} models.Task
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks [post]
func (h *Handler) HandleCreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	in := models.NewTask{Title: req.Title, Description: req.Description}
	if req.Priority != nil {
		priority, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return err
		}
		in.Priority = priority
	}

	due := req.DueDate
	if due == nil {
		due = req.DueDateAlt
	}
	dueDate, err := parseOptionalDate(due)
	if err != nil {
		return err
	}
	in.DueDate = dueDate

	userID := owner(c)
	task, err := h.Tasks.Create(c.UserContext(), userID, in)
	if err != nil {
		return err
	}

	h.publish(c, events.TaskCreated, userID, task.ID, "")
	return c.Status(fiber.StatusCreated).JSON(task)
}

// HandleUpdateTask godoc
// @Summary  Update a task; omitted optional fields are kept
// @Tags     tasks
// @Accept   json
// @Produce  json
// @Param    id   path string            true "Task ID"
// @Param    body body updateTaskRequest true "Changes"
// @Success  200 {object} models.Task
// @Failure  400 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks/{id} [put]
func (h *Handler) HandleUpdateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	changes := models.TaskChanges{
		Title:     req.Title,
		Completed: req.Completed,
	}
	if req.Description.set {
		changes.Description = req.Description.value
		changes.ClearDescription = req.Description.value == nil
	}
	if req.Priority != nil {
		priority, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return err
		}
		changes.Priority = &priority
	}

	due := req.DueDateAlt
	if !due.set {
		due = req.DueDate
	}
	if due.set {
		dueDate, err := parseOptionalDate(due.value)
		if err != nil {
			return err
		}
		changes.DueDate = dueDate
		changes.ClearDueDate = dueDate == nil
	}

	userID := owner(c)
	task, err := h.Tasks.Update(c.UserContext(), c.Params("id"), userID, changes)
	if err != nil {
		return taskNotFound(err)
	}

	h.publish(c, events.TaskUpdated, userID, task.ID, "")
	return c.JSON(task)
}

// HandleToggleTask godoc
// @Summary  Flip a task's completed flag
// @Tags     tasks
// @Produce  json
// @Param    id path string true "Task ID"
// @Success  200 {object} models.Task
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks/{id}/toggle [patch]
func (h *Handler) HandleToggleTask(c *fiber.Ctx) error {
	userID := owner(c)
	task, err := h.Tasks.ToggleCompleted(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return taskNotFound(err)
	}

	h.publish(c, events.TaskToggled, userID, task.ID, "")
	return c.JSON(task)
}

// HandleDeleteTask godoc
// @Summary  Delete a task and its subtasks
// @Tags     tasks
// @Produce  json
// @Param    id path string true "Task ID"
// @Success  200 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks/{id} [delete]
func (h *Handler) HandleDeleteTask(c *fiber.Ctx) error {
	userID := owner(c)
	id := c.Params("id")
	if err := h.Tasks.Delete(c.UserContext(), id, userID); err != nil {
		return taskNotFound(err)
	}

	h.publish(c, events.TaskDeleted, userID, id, "")
	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}
