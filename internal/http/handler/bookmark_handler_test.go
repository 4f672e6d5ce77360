package handler

import (
	"testing"

	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                  "/",
		"/your_bookmarks/":  "/your_bookmarks/",
		"/?page=2":          "/?page=2",
		"//evil.example":    "/",
		"/\\evil.example":   "/",
		"http://evil.test/": "/",
		"relative/path":     "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestBookmarklet(t *testing.T) {
	got := string(bookmarklet("https", &model.Site{Domain: "bookmarks.example.com"}))
	assert.Equal(t,
		"javascript:location.href='https://bookmarks.example.com/add/?url='+encodeURIComponent(location.href)"+
			"+'&description='+encodeURIComponent(document.title)+'&redirect=on'",
		got)
}
