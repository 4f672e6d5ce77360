package repository

import (
	"context"

	"github.com/sifan077/bookmarks/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository stores tag names and aggregates their usage.
type TagRepository interface {
	// Ensure returns the tags for names, creating the missing ones.
	Ensure(ctx context.Context, names []string) ([]model.Tag, error)
	// Cloud counts tag usage across the site's instances, keeping tags used at least minCount times.
	Cloud(ctx context.Context, siteID uint, minCount int64) ([]model.TagCount, error)
	// ForBookmarks counts tag usage per bookmark across the site's instances of bookmarkIDs.
	ForBookmarks(ctx context.Context, siteID uint, bookmarkIDs []uint) (map[uint][]model.TagCount, error)
}

type tagRepository struct {
	db *gorm.DB
}

func (r *tagRepository) Ensure(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	db := r.db.WithContext(ctx)

	fresh := make([]model.Tag, 0, len(names))
	for _, n := range names {
		fresh = append(fresh, model.Tag{Name: n})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var tags []model.Tag
	if err := db.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) usage(ctx context.Context, siteID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookmark_instances").
		Select("tags.name AS name, COUNT(*) AS count").
		Joins("JOIN bookmark_instance_tags jt ON jt.bookmark_instance_id = bookmark_instances.id").
		Joins("JOIN tags ON tags.id = jt.tag_id").
		Scopes(InstancesOnSite(siteID)).
		Group("tags.name").
		Order("tags.name")
}

func (r *tagRepository) Cloud(ctx context.Context, siteID uint, minCount int64) ([]model.TagCount, error) {
	var out []model.TagCount
	if err := r.usage(ctx, siteID).Having("COUNT(*) >= ?", minCount).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepository) ForBookmarks(ctx context.Context, siteID uint, bookmarkIDs []uint) (map[uint][]model.TagCount, error) {
	out := make(map[uint][]model.TagCount, len(bookmarkIDs))
	if len(bookmarkIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		BookmarkID uint
		Name       string
		Count      int64
	}
	err := r.db.WithContext(ctx).
		Table("bookmark_instances").
		Select("bookmark_instances.bookmark_id AS bookmark_id, tags.name AS name, COUNT(*) AS count").
		Joins("JOIN bookmark_instance_tags jt ON jt.bookmark_instance_id = bookmark_instances.id").
		Joins("JOIN tags ON tags.id = jt.tag_id").
		Scopes(InstancesOnSite(siteID)).
		Where("bookmark_instances.bookmark_id IN ?", bookmarkIDs).
		Group("bookmark_instances.bookmark_id, tags.name").
		Order("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.BookmarkID] = append(out[row.BookmarkID], model.TagCount{Name: row.Name, Count: row.Count})
	}
	return out, nil
}
