package middleware

import (
	"context"
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"go.uber.org/zap"
)

const localSite = "site"

// SiteLookup finds a site by its domain.
type SiteLookup interface {
	GetByDomain(ctx context.Context, domain string) (*model.Site, error)
}

// Site resolves the request host to a site and stores it for the handlers.
// Unknown hosts fall back to the default site.
func Site(sites SiteLookup, fallback *model.Site, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		site := fallback
		if found, err := lookupHost(c.UserContext(), sites, c.Hostname()); err == nil {
			site = found
		} else if !errors.Is(err, repository.ErrSiteNotFound) {
			logger.Error("resolve site", zap.String("host", c.Hostname()), zap.Error(err))
		}

		if site == nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown site")
		}
		c.Locals(localSite, site)
		return c.Next()
	}
}

func lookupHost(ctx context.Context, sites SiteLookup, host string) (*model.Site, error) {
	site, err := sites.GetByDomain(ctx, host)
	if err == nil || !errors.Is(err, repository.ErrSiteNotFound) {
		return site, err
	}
	if bare, _, splitErr := net.SplitHostPort(host); splitErr == nil {
		return sites.GetByDomain(ctx, bare)
	}
	return nil, err
}

// SiteFrom returns the site resolved for the request.
func SiteFrom(c *fiber.Ctx) *model.Site {
	site, _ := c.Locals(localSite).(*model.Site)
	return site
}
