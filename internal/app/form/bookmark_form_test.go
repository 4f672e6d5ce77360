package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	savedFn func(ctx context.Context, siteID, userID uint, url string) (bool, error)
	saveFn  func(ctx context.Context, input service.SaveInput) (*model.BookmarkInstance, error)
}

func (m *mockBackend) AlreadySaved(ctx context.Context, siteID, userID uint, url string) (bool, error) {
	if m.savedFn != nil {
		return m.savedFn(ctx, siteID, userID, url)
	}
	return false, nil
}

func (m *mockBackend) Save(ctx context.Context, input service.SaveInput) (*model.BookmarkInstance, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, input)
	}
	return &model.BookmarkInstance{Description: input.Description}, nil
}

func TestBookmarkForm_FieldOrder(t *testing.T) {
	f := NewBookmarkForm(&mockBackend{}, 1, 1)
	var names []string
	for _, row := range f.Rows() {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{"url", "description", "note", "tags", "redirect"}, names)
}

func TestBookmarkForm_Valid(t *testing.T) {
	var got service.SaveInput
	backend := &mockBackend{
		saveFn: func(ctx context.Context, input service.SaveInput) (*model.BookmarkInstance, error) {
			got = input
			return &model.BookmarkInstance{ID: 3}, nil
		},
	}
	f := NewBookmarkForm(backend, 4, 9)
	f.Bind(BookmarkInput{
		URL:         " example.com/page ",
		Description: "  Example site ",
		Tags:        "demo go",
		Redirect:    "on",
	})

	inst, err := f.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(3), inst.ID)
	assert.True(t, f.ShouldRedirect())

	assert.Equal(t, service.SaveInput{
		SiteID:      4,
		UserID:      9,
		URL:         "http://example.com/page",
		Description: "Example site",
		Tags:        []string{"demo", "go"},
	}, got)
}

func TestBookmarkForm_FieldErrors(t *testing.T) {
	cases := []struct {
		name  string
		input BookmarkInput
		field string
		msg   string
	}{
		{"missing url", BookmarkInput{Description: "d"}, "url", "This field is required."},
		{"bad scheme", BookmarkInput{URL: "ftp://example.com", Description: "d"}, "url", "Enter a valid URL."},
		{"no host", BookmarkInput{URL: "http://", Description: "d"}, "url", "Enter a valid URL."},
		{"missing description", BookmarkInput{URL: "http://example.com"}, "description", "This field is required."},
		{"long description", BookmarkInput{URL: "http://example.com", Description: strings.Repeat("x", 101)}, "description",
			"Ensure this value has at most 100 characters (it has 101)."},
		{"long tag", BookmarkInput{URL: "http://example.com", Description: "d", Tags: strings.Repeat("t", 51)}, "tags",
			"Each tag may be no more than 50 characters long."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &mockBackend{
				saveFn: func(context.Context, service.SaveInput) (*model.BookmarkInstance, error) {
					t.Fatal("invalid form must not be saved")
					return nil, nil
				},
			}
			f := NewBookmarkForm(backend, 1, 1)
			f.Bind(tc.input)

			ok, err := f.IsValid(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, []string{tc.msg}, f.Errors()[tc.field])

			_, err = f.Save(context.Background())
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestBookmarkForm_DescriptionCountsRunes(t *testing.T) {
	f := NewBookmarkForm(&mockBackend{}, 1, 1)
	f.Bind(BookmarkInput{URL: "http://example.com", Description: strings.Repeat("é", 100)})
	ok, err := f.IsValid(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBookmarkForm_Duplicate(t *testing.T) {
	backend := &mockBackend{
		savedFn: func(ctx context.Context, siteID, userID uint, url string) (bool, error) {
			return url == "http://example.com", nil
		},
	}
	f := NewBookmarkForm(backend, 1, 1)
	f.Bind(BookmarkInput{URL: "http://example.com", Description: "again"})

	ok, err := f.IsValid(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{ErrMsgDuplicate}, f.NonFieldErrors())
	assert.False(t, f.ShouldRedirect())
}

func TestBookmarkForm_DuplicateRaceSurfacesAsFormError(t *testing.T) {
	backend := &mockBackend{
		saveFn: func(context.Context, service.SaveInput) (*model.BookmarkInstance, error) {
			return nil, errors.Join(errors.New("save bookmark"), repository.ErrDuplicateInstance)
		},
	}
	f := NewBookmarkForm(backend, 1, 1)
	f.Bind(BookmarkInput{URL: "http://example.com", Description: "d"})

	_, err := f.Save(context.Background())
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, []string{ErrMsgDuplicate}, f.NonFieldErrors())
}

func TestBookmarkForm_BackendFailure(t *testing.T) {
	boom := errors.New("db down")
	backend := &mockBackend{
		savedFn: func(context.Context, uint, uint, string) (bool, error) { return false, boom },
	}
	f := NewBookmarkForm(backend, 1, 1)
	f.Bind(BookmarkInput{URL: "http://example.com", Description: "d"})

	_, err := f.Save(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBookmarkForm_InitialTrimsDescription(t *testing.T) {
	f := NewBookmarkForm(&mockBackend{}, 1, 1)
	f.SetInitial(BookmarkInput{URL: "http://example.com", Description: "  Title \n", Redirect: "on"})

	rows := f.Rows()
	assert.Equal(t, "http://example.com", rows[0].Value)
	assert.Equal(t, "Title", rows[1].Value)
	assert.True(t, rows[4].Checked)

	ok, err := f.IsValid(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "an unbound form is never valid")
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"on", "true", "1", "yes"} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"", "false", "0", "off", "OFF"} {
		assert.False(t, parseBool(v), v)
	}
}
