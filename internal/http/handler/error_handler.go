package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/bookmarks/internal/http/middleware"
	"github.com/sifan077/bookmarks/internal/http/view"
	"go.uber.org/zap"
)

// ErrorHandler renders errors as HTML pages. Unexpected errors are logged and
// shown as a generic 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Something went wrong on our side."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.Error(err),
			)
		}

		html, renderErr := view.RenderError(view.ErrorPageData{
			Page: view.Page{
				Site: middleware.SiteFrom(c),
				User: middleware.UserFrom(c),
			},
			Status:  status,
			Message: message,
		})
		if renderErr != nil {
			return c.Status(status).SendString(message)
		}
		return c.Status(status).Type("html", "utf-8").SendString(html)
	}
}
