package rest

import (
	"time"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/gofiber/fiber/v2"
)

const (
	emailKey = "email"
	roleKey  = "role"
)

// requireAuth admits requests carrying a valid identity cookie and stores the
// verified email in the request locals.
func (s *HTTPServer) requireAuth(c *fiber.Ctx) error {
	token := c.Cookies(common.AccessTokenCookieName)
	if token == "" {
		return s.writeError(c, common.ErrorUnauthorized)
	}

	claims, err := s.users.Authenticate(token)
	if err != nil {
		return s.writeError(c, err)
	}

	c.Locals(emailKey, claims.Email)
	c.Locals(roleKey, claims.Role)
	return c.Next()
}

func authEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(emailKey).(string)
	return email
}

func (s *HTTPServer) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", time.Since(start),
	)
	return err
}
