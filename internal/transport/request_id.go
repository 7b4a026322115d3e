package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tazehal/batching-engine/internal/observability"
)

// RequestID propagates the caller's X-Request-Id, generating one when absent,
// so every log line and error emitted under the request carries the same id.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(fiber.HeaderXRequestID, requestID)
		c.SetUserContext(observability.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
