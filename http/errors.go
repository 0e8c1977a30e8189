package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/domain"
)

// handleError turns handler errors into JSON responses. Logging happens in
// the request log middleware.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)

	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(cooldown.Seconds()))
	}
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, fiber.Map) {
	var (
		verr     *domain.ValidationError
		cooldown *domain.CooldownError
		ferr     *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, fiber.Map{"error": verr.Message, "field": verr.Field}
	case errors.As(err, &cooldown):
		return fiber.StatusTooManyRequests, fiber.Map{"error": cooldown.Error(), "retry_after": cooldown.Seconds()}
	case errors.As(err, &ferr):
		return ferr.Code, fiber.Map{"error": ferr.Message}
	}

	for _, m := range []struct {
		target error
		status int
	}{
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized},
		{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{domain.ErrEmailTaken, fiber.StatusConflict},
		{domain.ErrOTPInvalid, fiber.StatusBadRequest},
		{domain.ErrOTPExpired, fiber.StatusBadRequest},
		{domain.ErrTokenInvalid, fiber.StatusBadRequest},
		{domain.ErrOAuthDisabled, fiber.StatusNotFound},
		{domain.ErrNoSelection, fiber.StatusConflict},
	} {
		if errors.Is(err, m.target) {
			return m.status, fiber.Map{"error": m.target.Error()}
		}
	}
	return fiber.StatusInternalServerError, fiber.Map{"error": "internal server error"}
}
