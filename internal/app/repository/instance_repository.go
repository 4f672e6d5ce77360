package repository

import (
	"context"
	"errors"

	"github.com/sifan077/bookmarks/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstanceRepository defines the data access contract for users' saved bookmarks.
// Site scoping follows the instance's bookmark.
type InstanceRepository interface {
	// Create inserts inst and links its Tags, which must already carry IDs.
	Create(ctx context.Context, inst *model.BookmarkInstance) error
	GetOnSite(ctx context.Context, siteID, id uint) (*model.BookmarkInstance, error)
	ExistsForUserURL(ctx context.Context, siteID, userID uint, url string) (bool, error)
	// Recent returns the newest instances on the site, optionally only userID's.
	// limit <= 0 means no limit.
	Recent(ctx context.Context, siteID uint, userID *uint, limit int) ([]model.BookmarkInstance, error)
	Delete(ctx context.Context, id uint) error
}

type instanceRepository struct {
	db *gorm.DB
}

func (r *instanceRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Bookmark").
		Preload("Bookmark.Adder").
		Preload("User").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") })
}

func (r *instanceRepository) Create(ctx context.Context, inst *model.BookmarkInstance) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(inst).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateInstance
		}
		return err
	}

	if len(inst.Tags) == 0 {
		return nil
	}
	rows := make([]instanceTag, 0, len(inst.Tags))
	for _, t := range inst.Tags {
		rows = append(rows, instanceTag{BookmarkInstanceID: inst.ID, TagID: t.ID})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *instanceRepository) GetOnSite(ctx context.Context, siteID, id uint) (*model.BookmarkInstance, error) {
	var inst model.BookmarkInstance
	err := r.withRelations(ctx).
		Scopes(InstancesOnSite(siteID)).
		Where("bookmark_instances.id = ?", id).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func (r *instanceRepository) ExistsForUserURL(ctx context.Context, siteID, userID uint, url string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.BookmarkInstance{}).
		Joins("JOIN bookmarks ON bookmarks.id = bookmark_instances.bookmark_id").
		Scopes(InstancesOnSite(siteID)).
		Where("bookmark_instances.user_id = ? AND bookmarks.url = ?", userID, url).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *instanceRepository) Recent(ctx context.Context, siteID uint, userID *uint, limit int) ([]model.BookmarkInstance, error) {
	q := r.withRelations(ctx).
		Scopes(InstancesOnSite(siteID)).
		Order("bookmark_instances.saved DESC").
		Order("bookmark_instances.id DESC")
	if userID != nil {
		q = q.Where("bookmark_instances.user_id = ?", *userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var result []model.BookmarkInstance
	if err := q.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *instanceRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bookmark_instance_id = ?", id).Delete(&instanceTag{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.BookmarkInstance{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}
