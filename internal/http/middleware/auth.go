package middleware

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	httpUtil "github.com/sifan077/bookmarks/internal/http/util"
	"go.uber.org/zap"
)

const localUser = "user"

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// Session reads the signed session cookie and attaches the user, if any.
// A missing, forged or expired cookie leaves the request anonymous.
func Session(cookie string, signer *httpUtil.SessionSigner, users UserLookup, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookie)
		if token == "" {
			return c.Next()
		}

		userID, err := signer.Parse(token)
		if err != nil {
			logger.Debug("ignoring session cookie", zap.Error(err))
			c.ClearCookie(cookie)
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), userID)
		switch {
		case err == nil:
			c.Locals(localUser, user)
		case errors.Is(err, repository.ErrUserNotFound):
			c.ClearCookie(cookie)
		default:
			return err
		}
		return c.Next()
	}
}

// RequireLogin sends anonymous visitors to loginURL with the requested path in "next".
// The path is always origin-form, even for absolute-form request lines.
func RequireLogin(loginURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserFrom(c) != nil {
			return c.Next()
		}
		return c.Redirect(loginURL+"?next="+url.QueryEscape(string(c.Request().URI().RequestURI())), fiber.StatusFound)
	}
}

// UserFrom returns the signed-in user or nil.
func UserFrom(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(localUser).(*model.User)
	return user
}
