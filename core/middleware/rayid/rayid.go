package rayid

import (
	"record-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the ray id on requests and responses.
const Header = "X-Ray-ID"

// New returns a middleware that tags every request with a ray id. An id sent
// by the client is reused.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(logger.RayIDKey, rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
