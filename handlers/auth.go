package handlers

import (
	"errors"
	"strings"

	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/models"
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler godoc
// @Summary  Register a new user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body registerRequest true "Credentials"
// @Success  201 {object} models.User
// @Failure  400 {object} map[string]string
// @Router   /auth/register [post]
func (h *Handler) RegisterHandler(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username, _, _ = strings.Cut(req.Email, "@")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user, err := h.Users.Create(c.UserContext(), username, req.Email, hashedPassword)
	if err != nil {
		return err
	}

	h.Log.WithField("user_id", user.ID).Info("user registered")
	return c.Status(fiber.StatusCreated).JSON(user)
}

// LoginHandler godoc
// @Summary  Exchange credentials for an access token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body loginRequest true "Credentials"
// @Success  200 {object} map[string]string
// @Failure  401 {object} map[string]string
// @Router   /auth/login [post]
func (h *Handler) LoginHandler(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.Users.FindByEmail(c.UserContext(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrInvalidCredentials
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token})
}
