package middleware

import (
	"strings"

	"github.com/biosecret/go-tasks/auth"
	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTMiddleware rejects requests without a valid access token and stores
// the caller's user id for the handlers.
func JWTMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return auth.ErrMissingToken
		}

		// Expecting "Bearer <token>"
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			return auth.ErrInvalidToken
		}

		userID, err := verifier.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			return err
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or "" outside JWTMiddleware.
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
