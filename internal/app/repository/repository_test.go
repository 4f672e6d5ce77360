package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestBookmarks_ListOnSiteNewestFirst(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	env.SeedBookmark(t, env.SiteA, env.Alice, "http://one.example", "one", base)
	env.SeedBookmark(t, env.SiteA, env.Alice, "http://three.example", "three", base.Add(2*time.Hour))
	env.SeedBookmark(t, env.SiteA, env.Alice, "http://two.example", "two", base.Add(time.Hour))

	list, err := env.Store.Bookmarks().ListOnSite(ctx, env.SiteA.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Description)
	assert.Equal(t, "two", list[1].Description)
	assert.Equal(t, "one", list[2].Description)
	assert.Equal(t, "alice", list[0].Adder.Username)

	limited, err := env.Store.Bookmarks().ListOnSite(ctx, env.SiteA.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestBookmarks_SiteIsolation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	onA, instA := env.SeedBookmark(t, env.SiteA, env.Alice, "http://a.example", "only a", base)
	onB, _ := env.SeedBookmark(t, env.SiteB, env.Alice, "http://b.example", "only b", base)

	listA, err := env.Store.Bookmarks().ListOnSite(ctx, env.SiteA.ID, 0)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, onA.ID, listA[0].ID)

	_, err = env.Store.Bookmarks().FindOnSiteByURL(ctx, env.SiteB.ID, onA.URL)
	assert.ErrorIs(t, err, repository.ErrBookmarkNotFound)
	_, err = env.Store.Bookmarks().FindOnSiteByURL(ctx, env.SiteA.ID, onB.URL)
	assert.ErrorIs(t, err, repository.ErrBookmarkNotFound)

	_, err = env.Store.Instances().GetOnSite(ctx, env.SiteB.ID, instA.ID)
	assert.ErrorIs(t, err, repository.ErrInstanceNotFound)
	got, err := env.Store.Instances().GetOnSite(ctx, env.SiteA.ID, instA.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://a.example", got.Bookmark.URL)

	recentB, err := env.Store.Instances().Recent(ctx, env.SiteB.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, recentB, 1)
	assert.Equal(t, onB.ID, recentB[0].BookmarkID)
}

func TestBookmarks_MultiSiteNotDuplicated(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://both.example", "both", base)
	require.NoError(t, env.Store.Bookmarks().AddSite(ctx, b.ID, env.SiteB.ID))
	require.NoError(t, env.Store.Bookmarks().AddSite(ctx, b.ID, env.SiteB.ID))

	for _, site := range []*model.Site{env.SiteA, env.SiteB} {
		list, err := env.Store.Bookmarks().ListOnSite(ctx, site.ID, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1, site.Slug)
	}

	got, err := env.Store.Bookmarks().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "a b", got.SiteSlugs())
}

func TestInstances_DuplicateRejectedByIndex(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://dup.example", "dup", base)

	err := env.Store.Instances().Create(ctx, &model.BookmarkInstance{
		BookmarkID:  b.ID,
		UserID:      env.Alice.ID,
		Description: "again",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateInstance)

	exists, err := env.Store.Instances().ExistsForUserURL(ctx, env.SiteA.ID, env.Alice.ID, "http://dup.example")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = env.Store.Instances().ExistsForUserURL(ctx, env.SiteB.ID, env.Alice.ID, "http://dup.example")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = env.Store.Instances().ExistsForUserURL(ctx, env.SiteA.ID, env.Bob.ID, "http://dup.example")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInstances_RecentForUser(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b1, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://1.example", "first", base)
	env.SeedBookmark(t, env.SiteA, env.Bob, "http://2.example", "second", base.Add(time.Minute))
	env.SeedInstance(t, b1, env.Bob, "bob's first", base.Add(2*time.Minute))

	all, err := env.Store.Instances().Recent(ctx, env.SiteA.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bob's first", all[0].Description)
	assert.Equal(t, "second", all[1].Description)

	bobID := env.Bob.ID
	mine, err := env.Store.Instances().Recent(ctx, env.SiteA.ID, &bobID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, inst := range mine {
		assert.Equal(t, "bob", inst.User.Username)
	}
}

func TestBookmarks_SavedByUser(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b1, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://1.example", "first", base)
	b2, _ := env.SeedBookmark(t, env.SiteA, env.Bob, "http://2.example", "second", base)

	saved, err := env.Store.Bookmarks().SavedByUser(ctx, env.Alice.ID, []uint{b1.ID, b2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{b1.ID: true}, saved)
}

func TestTags_CloudAndPerBookmark(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b1, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://1.example", "first", base, "go", "web")
	env.SeedInstance(t, b1, env.Bob, "bob", base, "go")
	b2, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://2.example", "second", base, "demo")
	b3, _ := env.SeedBookmark(t, env.SiteB, env.Alice, "http://3.example", "elsewhere", base, "go", "other")

	cloud, err := env.Store.Tags().Cloud(ctx, env.SiteA.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.TagCount{
		{Name: "demo", Count: 1},
		{Name: "go", Count: 2},
		{Name: "web", Count: 1},
	}, cloud)

	popular, err := env.Store.Tags().Cloud(ctx, env.SiteA.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.TagCount{{Name: "go", Count: 2}}, popular)

	perBookmark, err := env.Store.Tags().ForBookmarks(ctx, env.SiteA.ID, []uint{b1.ID, b2.ID, b3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint][]model.TagCount{
		b1.ID: {{Name: "go", Count: 2}, {Name: "web", Count: 1}},
		b2.ID: {{Name: "demo", Count: 1}},
	}, perBookmark)

	offSite, err := env.Store.Tags().ForBookmarks(ctx, env.SiteB.ID, []uint{b1.ID})
	require.NoError(t, err)
	assert.Empty(t, offSite)

	none, err := env.Store.Tags().ForBookmarks(ctx, env.SiteA.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransaction_RollsBack(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b, inst := env.SeedBookmark(t, env.SiteA, env.Alice, "http://tx.example", "tx", base, "keep")

	err := env.Store.Transaction(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Instances().Delete(ctx, inst.ID))
		require.NoError(t, tx.Bookmarks().Delete(ctx, b.ID))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := env.Store.Instances().GetOnSite(ctx, env.SiteA.ID, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, got.TagNames())
}

func TestBookmarks_LockInsideTransaction(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	b, _ := env.SeedBookmark(t, env.SiteA, env.Alice, "http://lock.example", "lock", base)

	err := env.Store.Transaction(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Bookmarks().Lock(ctx, b.ID))
		found, err := tx.Bookmarks().FindOnSiteByURL(ctx, env.SiteA.ID, b.URL)
		require.NoError(t, err)
		assert.Equal(t, b.ID, found.ID)
		return tx.Bookmarks().Lock(ctx, 9999)
	})
	assert.ErrorIs(t, err, repository.ErrBookmarkNotFound)
}

func TestSites_EnsureAndLookup(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	renamed := &model.Site{Domain: "a.example.com", Name: "Renamed", Slug: "a2"}
	require.NoError(t, env.Store.Sites().Ensure(ctx, renamed))
	assert.Equal(t, env.SiteA.ID, renamed.ID)

	got, err := env.Store.Sites().GetByDomain(ctx, "a.example.com")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Slug)

	_, err = env.Store.Sites().GetByDomain(ctx, "nope.example.com")
	assert.ErrorIs(t, err, repository.ErrSiteNotFound)

	sites, err := env.Store.Sites().List(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}

func TestUsers_GetOrCreateIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	again, err := env.Store.Users().GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, env.Alice.ID, again.ID)

	_, err = env.Store.Users().GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
