package model

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// BookmarkInstance is one user's saving of a Bookmark, with their own text and tags.
// A user holds at most one instance per bookmark.
type BookmarkInstance struct {
	ID          uint      `gorm:"primaryKey"`
	BookmarkID  uint      `gorm:"not null;uniqueIndex:idx_instance_user_bookmark"`
	Bookmark    Bookmark  `gorm:"foreignKey:BookmarkID"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_instance_user_bookmark"`
	User        User      `gorm:"foreignKey:UserID"`
	Saved       time.Time `gorm:"not null;index"`
	Description string    `gorm:"size:100;not null"`
	Note        string    `gorm:"type:text;not null;default:''"`

	Tags []Tag `gorm:"many2many:bookmark_instance_tags;"`
}

func (i *BookmarkInstance) BeforeCreate(tx *gorm.DB) error {
	if i.Saved.IsZero() {
		i.Saved = time.Now()
	}
	return nil
}

// TagNames returns the instance's tag names in sorted order.
func (i *BookmarkInstance) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func (i *BookmarkInstance) String() string {
	return i.Bookmark.URL + " for " + i.User.Username
}

// Tag is a free-text label attached to bookmark instances.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;not null;uniqueIndex"`
}

// TagCount pairs a tag name with the number of instances carrying it.
type TagCount struct {
	Name  string
	Count int64
}
