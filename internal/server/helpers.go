package server

import (
	"errors"
	"log/slog"

	"playhub/internal/middleware"
	"playhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondError maps service errors to the error envelope. Unexpected errors are logged
// and reported without their text.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.Respond(c, err)
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
// Callers should check: if err != nil { return nil }
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

func messageResponse(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"message": message})
}
