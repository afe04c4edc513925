package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-gateway-be/internal/service"
	"rag-gateway-be/pkg/chat/session"
	"rag-gateway-be/pkg/llm"
	"rag-gateway-be/pkg/retrieval"
	"rag-gateway-be/pkg/vectorstore"
)

// ErrorHandlerMiddleware translates the failure taxonomy into HTTP statuses:
//
//	invalid/unknown session  -> 400
//	document not found       -> 404
//	retrieval unavailable    -> 500
//	generation backend down  -> 503
//	rejected request body    -> 400
//
// Anything unclassified becomes a generic 500 so internals never leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "An internal error occurred"

		var validationErr *ValidationError
		var fiberErr *fiber.Error

		switch {
		case errors.Is(err, service.ErrInvalidSession), errors.Is(err, session.ErrUnknownSession):
			code = fiber.StatusBadRequest
			message = "Invalid or missing session ID. Please start a new chat."
		case errors.Is(err, vectorstore.ErrNotFound):
			code = fiber.StatusNotFound
			message = "Document not found"
		case errors.Is(err, llm.ErrBackendUnavailable):
			code = fiber.StatusServiceUnavailable
			message = "Could not communicate with the generation backend"
		case errors.Is(err, retrieval.ErrRetrievalUnavailable):
			code = fiber.StatusInternalServerError
			message = "Retrieval failed"
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
			message = validationErr.Error()
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		}

		return ctx.Status(code).JSON(NewErrorBody(code, message))
	}
}
