package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sifan077/bookmarks/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 100

// BookmarkRepository defines the data access contract for canonical bookmarks.
// Every method taking a siteID only sees bookmarks associated with that site.
type BookmarkRepository interface {
	// ListOnSite returns the site's bookmarks newest first. limit <= 0 means no limit.
	ListOnSite(ctx context.Context, siteID uint, limit int) ([]model.Bookmark, error)
	// FindOnSiteByURL locks the returned row until the surrounding transaction ends.
	FindOnSiteByURL(ctx context.Context, siteID uint, url string) (*model.Bookmark, error)
	// Lock takes the row lock that serialises saves and deletes of one bookmark.
	Lock(ctx context.Context, id uint) error
	// Create inserts b and associates it with siteID.
	Create(ctx context.Context, b *model.Bookmark, siteID uint) error
	AddSite(ctx context.Context, bookmarkID, siteID uint) error
	UpdateFavicon(ctx context.Context, id uint, found bool, checked time.Time) error
	// SavedByUser returns which of bookmarkIDs the user holds an instance of.
	SavedByUser(ctx context.Context, userID uint, bookmarkIDs []uint) (map[uint]bool, error)
	CountInstances(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error

	// GetByID and EachBatch ignore sites; they feed the search index.
	GetByID(ctx context.Context, id uint) (*model.Bookmark, error)
	EachBatch(ctx context.Context, fn func([]model.Bookmark) error) error
}

type bookmarkRepository struct {
	db *gorm.DB
}

func (r *bookmarkRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Adder").Preload("Sites")
}

func (r *bookmarkRepository) ListOnSite(ctx context.Context, siteID uint, limit int) ([]model.Bookmark, error) {
	q := r.withRelations(ctx).
		Scopes(BookmarksOnSite(siteID)).
		Order("bookmarks.added DESC").
		Order("bookmarks.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var result []model.Bookmark
	if err := q.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *bookmarkRepository) FindOnSiteByURL(ctx context.Context, siteID uint, url string) (*model.Bookmark, error) {
	var b model.Bookmark
	err := r.withRelations(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(BookmarksOnSite(siteID)).
		Where("bookmarks.url = ?", url).
		Order("bookmarks.id").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookmarkNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bookmarkRepository) Lock(ctx context.Context, id uint) error {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Bookmark{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (r *bookmarkRepository) Create(ctx context.Context, b *model.Bookmark, siteID uint) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
		return err
	}
	if len(b.Sites) == 0 {
		b.Sites = []model.Site{{ID: siteID}}
	}
	for _, s := range b.Sites {
		if err := r.AddSite(ctx, b.ID, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *bookmarkRepository) AddSite(ctx context.Context, bookmarkID, siteID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bookmarkSite{BookmarkID: bookmarkID, SiteID: siteID}).Error
}

func (r *bookmarkRepository) UpdateFavicon(ctx context.Context, id uint, found bool, checked time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Bookmark{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"has_favicon":     found,
			"favicon_checked": checked,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (r *bookmarkRepository) SavedByUser(ctx context.Context, userID uint, bookmarkIDs []uint) (map[uint]bool, error) {
	saved := make(map[uint]bool)
	if len(bookmarkIDs) == 0 {
		return saved, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.BookmarkInstance{}).
		Where("user_id = ? AND bookmark_id IN ?", userID, bookmarkIDs).
		Distinct().
		Pluck("bookmark_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		saved[id] = true
	}
	return saved, nil
}

func (r *bookmarkRepository) CountInstances(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.BookmarkInstance{}).
		Where("bookmark_id = ?", id).
		Count(&n).Error
	return n, err
}

func (r *bookmarkRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bookmark_id = ?", id).Delete(&bookmarkSite{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.Bookmark{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (r *bookmarkRepository) GetByID(ctx context.Context, id uint) (*model.Bookmark, error) {
	var b model.Bookmark
	if err := r.withRelations(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookmarkNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bookmarkRepository) EachBatch(ctx context.Context, fn func([]model.Bookmark) error) error {
	var batch []model.Bookmark
	return r.withRelations(ctx).
		FindInBatches(&batch, defaultBatchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
