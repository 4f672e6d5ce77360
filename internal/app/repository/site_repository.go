package repository

import (
	"context"
	"errors"

	"github.com/sifan077/bookmarks/internal/app/model"
	"gorm.io/gorm"
)

// SiteRepository resolves the sites a request can be scoped to.
type SiteRepository interface {
	GetByDomain(ctx context.Context, domain string) (*model.Site, error)
	List(ctx context.Context) ([]model.Site, error)
	// Ensure creates the site keyed by domain, or refreshes its name and slug.
	Ensure(ctx context.Context, site *model.Site) error
}

type siteRepository struct {
	db *gorm.DB
}

func (r *siteRepository) GetByDomain(ctx context.Context, domain string) (*model.Site, error) {
	var site model.Site
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (r *siteRepository) List(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	if err := r.db.WithContext(ctx).Order("id").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

func (r *siteRepository) Ensure(ctx context.Context, site *model.Site) error {
	existing, err := r.GetByDomain(ctx, site.Domain)
	switch {
	case errors.Is(err, ErrSiteNotFound):
		return r.db.WithContext(ctx).Create(site).Error
	case err != nil:
		return err
	}

	site.ID = existing.ID
	return r.db.WithContext(ctx).
		Model(existing).
		Updates(map[string]interface{}{"name": site.Name, "slug": site.Slug}).Error
}
