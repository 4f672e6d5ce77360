package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panic into an error for the app's error handler and logs the stack.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v", r)
				logger.Error("panic recovered", append(requestFields(c),
					zap.Error(err),
					zap.ByteString("stack", debug.Stack()),
				)...)
			}
		}()

		return c.Next()
	}
}
