package model

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MaxURLLength bounds Bookmark.URL.
const MaxURLLength = 511

// Bookmark is the canonical record for one URL. Users save it through BookmarkInstance
// rows; the bookmark lives as long as at least one instance points at it.
type Bookmark struct {
	ID             uint      `gorm:"primaryKey"`
	URL            string    `gorm:"size:511;not null;index"`
	Description    string    `gorm:"type:text;not null"`
	Note           string    `gorm:"type:text;not null;default:''"`
	HasFavicon     bool      `gorm:"not null;default:false"`
	FaviconChecked time.Time `gorm:"not null"`
	AdderID        uint      `gorm:"not null;index"`
	Adder          User      `gorm:"foreignKey:AdderID"`
	Added          time.Time `gorm:"not null;index"`

	Sites          []Site             `gorm:"many2many:bookmark_sites;"`
	SavedInstances []BookmarkInstance `gorm:"foreignKey:BookmarkID"`
}

// BeforeCreate stamps added and favicon_checked with the insert time when unset.
func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if b.Added.IsZero() {
		b.Added = now
	}
	if b.FaviconChecked.IsZero() {
		b.FaviconChecked = now
	}
	return nil
}

// FaviconURL returns scheme://host/favicon.ico for the bookmark's URL.
// Unless force is set it only answers when a favicon was found at the last check.
func (b *Bookmark) FaviconURL(force bool) (string, bool) {
	if !b.HasFavicon && !force {
		return "", false
	}
	u, err := url.Parse(b.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return fmt.Sprintf("%s://%s/favicon.ico", u.Scheme, u.Host), true
}

// SiteSlugs joins the slugs of the loaded Sites with single spaces.
func (b *Bookmark) SiteSlugs() string {
	slugs := make([]string, 0, len(b.Sites))
	for _, s := range b.Sites {
		slugs = append(slugs, s.Slug)
	}
	sort.Strings(slugs)
	return strings.Join(slugs, " ")
}

func (b *Bookmark) String() string {
	return b.URL
}
