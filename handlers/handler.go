package handlers

import (
	"context"
	"time"

	"github.com/biosecret/go-tasks/events"
	"github.com/biosecret/go-tasks/middleware"
	"github.com/biosecret/go-tasks/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TaskStore interface {
	List(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error)
	GetByID(ctx context.Context, id, ownerID string) (*models.Task, error)
	Create(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error)
	Update(ctx context.Context, id, ownerID string, c models.TaskChanges) (*models.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	ToggleCompleted(ctx context.Context, id, ownerID string) (*models.Task, error)
}

type SubtaskStore interface {
	ListForTask(ctx context.Context, taskID, ownerID string) ([]models.Subtask, error)
	Create(ctx context.Context, taskID, ownerID, title string) (*models.Subtask, error)
	Toggle(ctx context.Context, subtaskID, ownerID string) (*models.Subtask, error)
	Update(ctx context.Context, subtaskID, ownerID string, c models.SubtaskChanges) (*models.Subtask, error)
	Delete(ctx context.Context, subtaskID, ownerID string) (taskID string, err error)
}

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the REST API. Every task and subtask call passes the
// authenticated user id explicitly to the stores.
type Handler struct {
	Tasks    TaskStore
	Subtasks SubtaskStore
	Users    UserStore
	Tokens   TokenIssuer
	Events   events.Publisher
	DB       Pinger
	Log      logrus.FieldLogger
}

// publish sends a change event. Delivery problems are logged, never
// returned: the change is already committed.
func (h *Handler) publish(c *fiber.Ctx, eventType, userID, taskID, subtaskID string) {
	if h.Events == nil {
		return
	}
	err := h.Events.Publish(c.UserContext(), events.Event{
		Type:      eventType,
		UserID:    userID,
		TaskID:    taskID,
		SubtaskID: subtaskID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		h.Log.WithError(err).WithField("event", eventType).Warn("failed to publish event")
	}
}

func owner(c *fiber.Ctx) string {
	return middleware.CurrentUserID(c)
}
