// Package testutil provides database fixtures shared by the package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/infra/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Env is a migrated on-disk SQLite database with two sites and two users.
type Env struct {
	DB    *gorm.DB
	Store repository.Store

	SiteA *model.Site
	SiteB *model.Site
	Alice *model.User
	Bob   *model.User
}

// NewEnv creates an isolated database under t.TempDir(); it is closed on cleanup.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewGorm(filepath.Join(t.TempDir(), "bookmarks.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, repository.Migrate(ctx, db))

	store := repository.NewStore(db)
	env := &Env{
		DB:    db,
		Store: store,
		SiteA: &model.Site{Domain: "a.example.com", Name: "Site A", Slug: "a"},
		SiteB: &model.Site{Domain: "b.example.com", Name: "Site B", Slug: "b"},
	}
	require.NoError(t, store.Sites().Ensure(ctx, env.SiteA))
	require.NoError(t, store.Sites().Ensure(ctx, env.SiteB))

	env.Alice, err = store.Users().GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	env.Bob, err = store.Users().GetOrCreate(ctx, "bob")
	require.NoError(t, err)

	return env
}

// SeedBookmark creates a bookmark on site with one instance owned by user, saved at added.
func (e *Env) SeedBookmark(t *testing.T, site *model.Site, user *model.User, url, description string, added time.Time, tags ...string) (*model.Bookmark, *model.BookmarkInstance) {
	t.Helper()
	ctx := context.Background()

	b := &model.Bookmark{
		URL:         url,
		Description: description,
		AdderID:     user.ID,
		Added:       added,
	}
	require.NoError(t, e.Store.Bookmarks().Create(ctx, b, site.ID))

	inst := e.SeedInstance(t, b, user, description, added, tags...)
	return b, inst
}

// SeedInstance saves b for user.
func (e *Env) SeedInstance(t *testing.T, b *model.Bookmark, user *model.User, description string, saved time.Time, tags ...string) *model.BookmarkInstance {
	t.Helper()
	ctx := context.Background()

	tagRows, err := e.Store.Tags().Ensure(ctx, tags)
	require.NoError(t, err)

	inst := &model.BookmarkInstance{
		BookmarkID:  b.ID,
		UserID:      user.ID,
		Saved:       saved,
		Description: description,
		Tags:        tagRows,
	}
	require.NoError(t, e.Store.Instances().Create(ctx, inst))
	return inst
}
