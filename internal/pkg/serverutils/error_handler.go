package serverutils

import (
	"errors"
	"log"

	"medibuddy-be/internal/constant"
	"medibuddy-be/pkg/extraction"
	"medibuddy-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors that escaped the controllers into
// JSON responses, mapping the known sentinels to their status codes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.Is(err, extraction.ErrExtractionFailed):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, rag.ErrRetrievalUnavailable),
			errors.Is(err, rag.ErrGenerationUnavailable):
			code = fiber.StatusServiceUnavailable
			message = constant.ChatErrorAnswer
		}

		if code == fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}

		return ctx.Status(code).JSON(fiber.Map{
			"success": false,
			"code":    code,
			"message": message,
		})
	}
}
