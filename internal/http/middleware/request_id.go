package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	localRequestID  = "request_id"
)

// RequestID reuses the caller's request id or generates one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(RequestIDHeader, rid)
		c.Locals(localRequestID, rid)
		return c.Next()
	}
}

func requestFields(c *fiber.Ctx) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
	if rid, ok := c.Locals(localRequestID).(string); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if site := SiteFrom(c); site != nil {
		fields = append(fields, zap.String("site", site.Slug))
	}
	if user := UserFrom(c); user != nil {
		fields = append(fields, zap.String("user", user.Username))
	}
	return fields
}
