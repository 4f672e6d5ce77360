package view

import (
	"context"
	"html/template"
	"testing"
	"time"

	"github.com/sifan077/bookmarks/internal/app/form"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBookmarks(t *testing.T) {
	alice := model.User{ID: 1, Username: "alice"}
	html, err := RenderBookmarks(BookmarksPageData{
		Page: Page{
			Site:     &model.Site{Name: "Example"},
			User:     &alice,
			Flash:    "You have saved bookmark 'Example site'",
			TagCloud: []model.TagCount{{Name: "go", Count: 2}},
		},
		Bookmarks: []BookmarkRow{{
			Bookmark: model.Bookmark{
				URL:         "http://example.com",
				Description: "Example <site>",
				Adder:       alice,
				Added:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			},
			FaviconURL: "http://example.com/favicon.ico",
			Saved:      true,
		}},
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<title>All bookmarks · Example</title>")
	assert.Contains(t, html, "Example &lt;site&gt;")
	assert.Contains(t, html, `src="http://example.com/favicon.ico"`)
	assert.Contains(t, html, `class="saved"`)
	assert.Contains(t, html, "first saved by alice on Mar 1, 2024 10:00")
	assert.Contains(t, html, "go (2)")
	assert.Contains(t, html, "You have saved bookmark &#39;Example site&#39;")
}

func TestRenderBookmarks_Empty(t *testing.T) {
	html, err := RenderBookmarks(BookmarksPageData{})
	require.NoError(t, err)
	assert.Contains(t, html, "No bookmarks yet.")
	assert.NotContains(t, html, "/your_bookmarks/", "anonymous visitors get no personal links")
}

func TestRenderAdd_KeepsBookmarklet(t *testing.T) {
	f := form.NewBookmarkForm(nil, 1, 1)
	f.SetInitial(form.BookmarkInput{URL: "http://example.com", Description: " Title "})

	html, err := RenderAdd(AddPageData{
		Page:           Page{User: &model.User{ID: 1, Username: "alice"}},
		Rows:           f.Rows(),
		NonFieldErrors: []string{form.ErrMsgDuplicate},
		Bookmarklet:    template.URL("javascript:location.href='http://example.com/add/?url='+encodeURIComponent(location.href)"),
	})
	require.NoError(t, err)

	assert.Contains(t, html, `href="javascript:location.href=`)
	assert.NotContains(t, html, "ZgotmplZ")
	assert.Contains(t, html, `name="url" value="http://example.com"`)
	assert.Contains(t, html, `name="description" value="Title"`)
	assert.Contains(t, html, "You have already bookmarked this link.")
}

func TestRenderYourBookmarks(t *testing.T) {
	html, err := RenderYourBookmarks(YourBookmarksPageData{
		Instances: []model.BookmarkInstance{{
			ID:          7,
			Description: "Mine",
			Bookmark:    model.Bookmark{URL: "http://example.com"},
			Saved:       time.Now(),
			Tags:        []model.Tag{{Name: "go lang"}, {Name: "demo"}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, html, `href="/7/delete/?next=/your_bookmarks/"`)
	assert.Contains(t, html, `<span class="tag">demo &#34;go lang&#34;</span>`)
}

func TestRenderError(t *testing.T) {
	html, err := RenderError(ErrorPageData{Status: 404, Message: "Bookmark not found."})
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>404</h1>")
	assert.Contains(t, html, "Bookmark not found.")
}

func TestSidebar(t *testing.T) {
	items := []model.BookmarkInstance{
		{ID: 2, Description: "second", Bookmark: model.Bookmark{URL: "http://b.example"}},
		{ID: 1, Description: "first", Bookmark: model.Bookmark{URL: "http://a.example"}},
	}

	t.Run("bad directive fails at construction", func(t *testing.T) {
		_, err := NewSidebar(&recentStub{}, "5 into recent")
		assert.Error(t, err)
	})

	t.Run("anonymous viewer only gets site wide list", func(t *testing.T) {
		s, err := NewSidebar(&recentStub{items: items}, "5 as recent_bookmarks", "5 for user as user_recent_bookmarks")
		require.NoError(t, err)

		vars, err := s.Vars(context.Background(), 1, nil)
		require.NoError(t, err)
		assert.Len(t, vars["recent_bookmarks"], 2)
		assert.NotContains(t, vars, "user_recent_bookmarks")
	})

	t.Run("single binding renders", func(t *testing.T) {
		s, err := NewSidebar(&recentStub{items: items}, "1 as recent_bookmarks")
		require.NoError(t, err)

		vars, err := s.Vars(context.Background(), 1, &model.User{ID: 1})
		require.NoError(t, err)

		html, err := RenderBookmarks(BookmarksPageData{Page: Page{Vars: vars}})
		require.NoError(t, err)
		assert.Contains(t, html, "Recently saved")
		assert.Contains(t, html, "second")
		assert.NotContains(t, html, ">first<")
	})
}
