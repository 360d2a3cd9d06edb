package rest

import (
	"errors"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorIncorrectMetadata),
		errors.Is(err, common.ErrPaymentIncomplete),
		errors.Is(err, common.ErrUpdateFailed):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {message}. Duplicate applications also carry
// insertedId: null. Internal failures are logged and reported generically.
func (s *HTTPServer) writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	var dup *services.DuplicateApplicationError
	if errors.As(err, &dup) {
		return c.Status(status).JSON(fiber.Map{"message": dup.Message, "insertedId": nil})
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"message": common.ErrorInternal.Error()})
	}

	return c.Status(status).JSON(fiber.Map{"message": err.Error()})
}

// errorHandler renders errors escaping the handlers, including fiber's own
// routing errors and recovered panics.
func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return s.writeError(c, err)
}
