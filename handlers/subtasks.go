package handlers

import (
	"errors"
	"fmt"

	"github.com/biosecret/go-tasks/events"
	"github.com/biosecret/go-tasks/models"
	"github.com/gofiber/fiber/v2"
)

type createSubtaskRequest struct {
	Title string `json:"title"`
}

type updateSubtaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

func subtaskNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("subtask %w", err)
	}
	return err
}

// HandleTaskSubtasks godoc
// @Summary  List a task's subtasks, oldest first
// @Tags     subtasks
// @Produce  json
// @Param    taskId path string true "Task ID"
// @Success  200 {array} models.Subtask
// @Security BearerAuth
// @Router   /tasks/{taskId}/subtasks [get]
func (h *Handler) HandleTaskSubtasks(c *fiber.Ctx) error {
	subtasks, err := h.Subtasks.ListForTask(c.UserContext(), c.Params("taskId"), owner(c))
	if err != nil {
		return err
	}
	return c.JSON(subtasks)
}

// HandleCreateSubtask godoc
// @Summary  Add a subtask; the parent task becomes incomplete
// @Tags     subtasks
// @Accept   json
// @Produce  json
// @Param    taskId path string               true "Task ID"
// @Param    body   body createSubtaskRequest true "Subtask"
// @Success  201 {object} models.Subtask
// @Failure  400 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /tasks/{taskId}/subtasks [post]
func (h *Handler) HandleCreateSubtask(c *fiber.Ctx) error {
	var req createSubtaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	userID := owner(c)
	subtask, err := h.Subtasks.Create(c.UserContext(), c.Params("taskId"), userID, req.Title)
	if err != nil {
		return taskNotFound(err)
	}

	h.publish(c, events.SubtaskCreated, userID, subtask.TaskID, subtask.ID)
	return c.Status(fiber.StatusCreated).JSON(subtask)
}

// HandleUpdateSubtask godoc
// @Summary  Change a subtask's title and/or completed flag
// @Tags     subtasks
// @Accept   json
// @Produce  json
// @Param    id   path string               true "Subtask ID"
// @Param    body body updateSubtaskRequest true "Changes"
// @Success  200 {object} models.Subtask
// @Failure  400 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /subtasks/{id} [patch]
func (h *Handler) HandleUpdateSubtask(c *fiber.Ctx) error {
	var req updateSubtaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	changes := models.SubtaskChanges{Title: req.Title, Completed: req.Completed}
	if changes.Empty() {
		return models.NewValidationError("title or completed is required")
	}

	userID := owner(c)
	subtask, err := h.Subtasks.Update(c.UserContext(), c.Params("id"), userID, changes)
	if err != nil {
		return subtaskNotFound(err)
	}

	h.publish(c, events.SubtaskUpdated, userID, subtask.TaskID, subtask.ID)
	return c.JSON(subtask)
}

// HandleToggleSubtask godoc
// @Summary  Flip a subtask's completed flag and recompute its task
// @Tags     subtasks
// @Produce  json
// @Param    id path string true "Subtask ID"
// @Success  200 {object} models.Subtask
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /subtasks/{id}/toggle [patch]
func (h *Handler) HandleToggleSubtask(c *fiber.Ctx) error {
	userID := owner(c)
	subtask, err := h.Subtasks.Toggle(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return subtaskNotFound(err)
	}

	h.publish(c, events.SubtaskUpdated, userID, subtask.TaskID, subtask.ID)
	return c.JSON(subtask)
}

// HandleDeleteSubtask godoc
// @Summary  Delete a subtask and recompute its task
// @Tags     subtasks
// @Produce  json
// @Param    id path string true "Subtask ID"
// @Success  200 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /subtasks/{id} [delete]
func (h *Handler) HandleDeleteSubtask(c *fiber.Ctx) error {
	userID := owner(c)
	id := c.Params("id")
	taskID, err := h.Subtasks.Delete(c.UserContext(), id, userID)
	if err != nil {
		return subtaskNotFound(err)
	}

	h.publish(c, events.SubtaskDeleted, userID, taskID, id)
	return c.JSON(fiber.Map{"message": "Subtask deleted"})
}
