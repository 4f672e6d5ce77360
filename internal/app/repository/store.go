package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sifan077/bookmarks/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrBookmarkNotFound signals that no bookmark matches on the requested site.
	ErrBookmarkNotFound = errors.New("bookmark not found")
	// ErrInstanceNotFound signals that no bookmark instance matches on the requested site.
	ErrInstanceNotFound = errors.New("bookmark instance not found")
	ErrSiteNotFound     = errors.New("site not found")
	ErrUserNotFound     = errors.New("user not found")
	// ErrDuplicateInstance is returned when the user already holds an instance of the bookmark.
	ErrDuplicateInstance = errors.New("bookmark instance already exists for user")
)

// Store hands out the repositories and runs them inside a transaction on demand.
type Store interface {
	Sites() SiteRepository
	Users() UserRepository
	Bookmarks() BookmarkRepository
	Instances() InstanceRepository
	Tags() TagRepository

	// Transaction runs fn against a Store bound to one database transaction.
	// Returning an error from fn rolls it back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a GORM-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Sites() SiteRepository         { return &siteRepository{db: s.db} }
func (s *gormStore) Users() UserRepository         { return &userRepository{db: s.db} }
func (s *gormStore) Bookmarks() BookmarkRepository { return &bookmarkRepository{db: s.db} }
func (s *gormStore) Instances() InstanceRepository { return &instanceRepository{db: s.db} }
func (s *gormStore) Tags() TagRepository           { return &tagRepository{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// Migrate creates or updates every table the bookmarks service uses.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&model.Site{},
		&model.User{},
		&model.Tag{},
		&model.Bookmark{},
		&model.BookmarkInstance{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// BookmarksOnSite restricts a bookmarks query to rows associated with siteID.
func BookmarksOnSite(siteID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"EXISTS (SELECT 1 FROM bookmark_sites bs WHERE bs.bookmark_id = bookmarks.id AND bs.site_id = ?)",
			siteID,
		)
	}
}

// InstancesOnSite restricts a bookmark_instances query to instances whose bookmark
// is associated with siteID.
func InstancesOnSite(siteID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"EXISTS (SELECT 1 FROM bookmark_sites bs WHERE bs.bookmark_id = bookmark_instances.bookmark_id AND bs.site_id = ?)",
			siteID,
		)
	}
}

// bookmarkSite and instanceTag address the many2many join tables directly.
type bookmarkSite struct {
	BookmarkID uint `gorm:"primaryKey"`
	SiteID     uint `gorm:"primaryKey"`
}

func (bookmarkSite) TableName() string { return "bookmark_sites" }

type instanceTag struct {
	BookmarkInstanceID uint `gorm:"primaryKey"`
	TagID              uint `gorm:"primaryKey"`
}

func (instanceTag) TableName() string { return "bookmark_instance_tags" }

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
