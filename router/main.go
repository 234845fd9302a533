package router

import (
	"github.com/biosecret/go-tasks/handlers"
	"github.com/biosecret/go-tasks/middleware"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, h *handlers.Handler, verifier middleware.TokenVerifier) {
	app.Get("/health", h.HandleHealthCheck)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.RegisterHandler)
	auth.Post("/login", h.LoginHandler)

	protected := api.Group("", middleware.JWTMiddleware(verifier))

	protected.Get("/tasks", h.HandleAllTasks)
	protected.Post("/tasks", h.HandleCreateTask)
	protected.Get("/tasks/:id", h.HandleGetOneTask)
	protected.Put("/tasks/:id", h.HandleUpdateTask)
	protected.Patch("/tasks/:id/toggle", h.HandleToggleTask)
	protected.Delete("/tasks/:id", h.HandleDeleteTask)

	protected.Get("/tasks/:taskId/subtasks", h.HandleTaskSubtasks)
	protected.Post("/tasks/:taskId/subtasks", h.HandleCreateSubtask)
	protected.Patch("/subtasks/:id", h.HandleUpdateSubtask)
	protected.Patch("/subtasks/:id/toggle", h.HandleToggleSubtask)
	protected.Delete("/subtasks/:id", h.HandleDeleteSubtask)
}
