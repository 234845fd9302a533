package handlers

import (
	"errors"

	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error as {"error": message} with the status
// of its kind. Store failures are logged and reported without detail.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)
		if code >= fiber.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

func classify(err error) (int, string) {
	var validationErr *models.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Message
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, auth.ErrMissingToken):
		return fiber.StatusUnauthorized, auth.ErrMissingToken.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusForbidden, auth.ErrInvalidToken.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, models.ErrInvalidCredentials.Error()
	case errors.Is(err, models.ErrEmailTaken):
		return fiber.StatusBadRequest, models.ErrEmailTaken.Error()
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}
