package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/bookmarks/internal/app/form"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/app/service"
	"github.com/sifan077/bookmarks/internal/http/middleware"
	"github.com/sifan077/bookmarks/internal/http/view"
	"go.uber.org/zap"
)

const flashTTL = 5 * time.Minute

// BookmarkDeps groups dependencies required by the bookmark views.
type BookmarkDeps struct {
	Logger      *zap.Logger
	Bookmarks   service.BookmarkService
	Sidebar     *view.Sidebar
	FlashCookie string
	LoginURL    string
	// AddLimiter guards POST /add/. Optional.
	AddLimiter fiber.Handler
}

// BookmarkHandler serves the list, add and delete views.
type BookmarkHandler struct {
	logger      *zap.Logger
	bookmarks   service.BookmarkService
	sidebar     *view.Sidebar
	flashCookie string
	loginURL    string
	addLimiter  fiber.Handler
}

func NewBookmarkHandler(deps BookmarkDeps) *BookmarkHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &BookmarkHandler{
		logger:      logger,
		bookmarks:   deps.Bookmarks,
		sidebar:     deps.Sidebar,
		flashCookie: deps.FlashCookie,
		loginURL:    deps.LoginURL,
		addLimiter:  deps.AddLimiter,
	}
	if h.flashCookie == "" {
		h.flashCookie = "bookmarks_flash"
	}
	if h.loginURL == "" {
		h.loginURL = "/accounts/login/"
	}
	if h.addLimiter == nil {
		h.addLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}

// Register wires the bookmark routes onto the provided router.
func (h *BookmarkHandler) Register(router fiber.Router) {
	login := middleware.RequireLogin(h.loginURL)

	router.Get("/", h.List)
	router.Get("/your_bookmarks/", login, h.YourBookmarks)
	router.Get("/add/", login, h.AddForm)
	router.Post("/add/", login, h.addLimiter, h.Add)
	router.Get("/:id<int>/delete/", login, h.Delete)
}

// List handles GET / with every bookmark of the current site, newest first.
func (h *BookmarkHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	site := middleware.SiteFrom(c)
	user := middleware.UserFrom(c)

	bookmarks, err := h.bookmarks.ListOnSite(ctx, site.ID)
	if err != nil {
		return err
	}

	saved := map[uint]bool{}
	if user != nil {
		if saved, err = h.bookmarks.SavedByUser(ctx, user.ID, bookmarks); err != nil {
			return err
		}
	}
	tags, err := h.bookmarks.TagsForBookmarks(ctx, site.ID, bookmarks)
	if err != nil {
		return err
	}

	rows := make([]view.BookmarkRow, 0, len(bookmarks))
	for _, b := range bookmarks {
		favicon, _ := b.FaviconURL(false)
		rows = append(rows, view.BookmarkRow{
			Bookmark:   b,
			FaviconURL: favicon,
			Tags:       tags[b.ID],
			Saved:      saved[b.ID],
		})
	}

	page, err := h.page(c)
	if err != nil {
		return err
	}
	html, err := view.RenderBookmarks(view.BookmarksPageData{Page: page, Bookmarks: rows})
	if err != nil {
		return err
	}
	return c.Type("html", "utf-8").SendString(html)
}

// YourBookmarks handles GET /your_bookmarks/.
func (h *BookmarkHandler) YourBookmarks(c *fiber.Ctx) error {
	site := middleware.SiteFrom(c)
	user := middleware.UserFrom(c)

	instances, err := h.bookmarks.ListForUser(c.UserContext(), site.ID, user.ID)
	if err != nil {
		return err
	}

	page, err := h.page(c)
	if err != nil {
		return err
	}
	html, err := view.RenderYourBookmarks(view.YourBookmarksPageData{Page: page, Instances: instances})
	if err != nil {
		return err
	}
	return c.Type("html", "utf-8").SendString(html)
}

// AddForm handles GET /add/, pre-filled from the bookmarklet's query parameters.
func (h *BookmarkHandler) AddForm(c *fiber.Ctx) error {
	f := h.newForm(c)
	f.SetInitial(form.BookmarkInput{
		URL:         c.Query("url"),
		Description: c.Query("description"),
		Redirect:    c.Query("redirect"),
	})
	return h.renderAdd(c, f)
}

// Add handles POST /add/. Invalid input re-renders the form with status 200.
func (h *BookmarkHandler) Add(c *fiber.Ctx) error {
	var input form.BookmarkInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed form submission.")
	}

	f := h.newForm(c)
	f.Bind(input)

	ctx := c.UserContext()
	inst, err := f.Save(ctx)
	if errors.Is(err, form.ErrInvalid) {
		return h.renderAdd(c, f)
	}
	if err != nil {
		return err
	}

	if _, err := h.bookmarks.RefreshFavicon(ctx, inst.BookmarkID); err != nil {
		h.logger.Warn("favicon refresh failed", zap.Uint("bookmark_id", inst.BookmarkID), zap.Error(err))
	}

	if f.ShouldRedirect() {
		cleaned, _ := f.Cleaned()
		return c.Redirect(cleaned.URL, fiber.StatusFound)
	}
	h.setFlash(c, fmt.Sprintf("You have saved bookmark '%s'", inst.Description))
	return c.Redirect("/", fiber.StatusFound)
}

// Delete handles GET /:id/delete/. Deleting someone else's instance changes nothing
// but still redirects.
func (h *BookmarkHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}

	result, err := h.bookmarks.Delete(c.UserContext(), service.DeleteInput{
		SiteID:     middleware.SiteFrom(c).ID,
		UserID:     middleware.UserFrom(c).ID,
		InstanceID: uint(id),
	})
	if errors.Is(err, repository.ErrInstanceNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Bookmark not found.")
	}
	if err != nil {
		return err
	}

	if result.Outcome != service.DeleteSkipped {
		h.setFlash(c, fmt.Sprintf("Successfully deleted bookmark '%s'", result.Instance.Description))
	}
	return c.Redirect(safeNext(c.Query("next")), fiber.StatusFound)
}

func (h *BookmarkHandler) newForm(c *fiber.Ctx) *form.BookmarkForm {
	return form.NewBookmarkForm(h.bookmarks, middleware.SiteFrom(c).ID, middleware.UserFrom(c).ID)
}

func (h *BookmarkHandler) renderAdd(c *fiber.Ctx, f *form.BookmarkForm) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	html, err := view.RenderAdd(view.AddPageData{
		Page:           page,
		Rows:           f.Rows(),
		NonFieldErrors: f.NonFieldErrors(),
		Bookmarklet:    bookmarklet(c.Protocol(), middleware.SiteFrom(c)),
	})
	if err != nil {
		return err
	}
	return c.Type("html", "utf-8").SendString(html)
}

// page collects the parts every view shares and consumes the pending flash notice.
func (h *BookmarkHandler) page(c *fiber.Ctx) (view.Page, error) {
	ctx := c.UserContext()
	site := middleware.SiteFrom(c)
	user := middleware.UserFrom(c)

	cloud, err := h.bookmarks.TagCloud(ctx, site.ID)
	if err != nil {
		return view.Page{}, err
	}

	var vars map[string]any
	if h.sidebar != nil {
		if vars, err = h.sidebar.Vars(ctx, site.ID, user); err != nil {
			return view.Page{}, err
		}
	}

	return view.Page{
		Site:     site,
		User:     user,
		Flash:    h.takeFlash(c),
		TagCloud: cloud,
		Vars:     vars,
	}, nil
}

func (h *BookmarkHandler) setFlash(c *fiber.Ctx, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		Expires:  time.Now().Add(flashTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *BookmarkHandler) takeFlash(c *fiber.Ctx) string {
	raw := c.Cookies(h.flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

// bookmarklet builds the javascript: link that opens the add view for the current page.
func bookmarklet(protocol string, site *model.Site) template.URL {
	return template.URL(fmt.Sprintf(
		"javascript:location.href='%s://%s/add/?url='+encodeURIComponent(location.href)+'&description='+encodeURIComponent(document.title)+'&redirect=on'",
		protocol, site.Domain,
	))
}

// safeNext keeps delete redirects on this host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
