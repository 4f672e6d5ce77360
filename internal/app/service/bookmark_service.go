package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/app/search"
	metrics "github.com/sifan077/bookmarks/internal/infra/prometheus"
	"go.uber.org/zap"
)

// BookmarkService defines behaviour-level operations on bookmarks and their instances.
// Every siteID-taking method only sees rows of that site.
type BookmarkService interface {
	ListOnSite(ctx context.Context, siteID uint) ([]model.Bookmark, error)
	SavedByUser(ctx context.Context, userID uint, bookmarks []model.Bookmark) (map[uint]bool, error)
	ListForUser(ctx context.Context, siteID, userID uint) ([]model.BookmarkInstance, error)
	Recent(ctx context.Context, siteID uint, userID *uint, limit int) ([]model.BookmarkInstance, error)
	TagCloud(ctx context.Context, siteID uint) ([]model.TagCount, error)
	TagsForBookmarks(ctx context.Context, siteID uint, bookmarks []model.Bookmark) (map[uint][]model.TagCount, error)

	AlreadySaved(ctx context.Context, siteID, userID uint, url string) (bool, error)
	Save(ctx context.Context, input SaveInput) (*model.BookmarkInstance, error)
	RefreshFavicon(ctx context.Context, bookmarkID uint) (*model.Bookmark, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteResult, error)

	// Reindex sends every bookmark, on any site, to the search index.
	Reindex(ctx context.Context) (int, error)
}

// BookmarkServiceDeps groups the collaborators of the bookmark service.
type BookmarkServiceDeps struct {
	Store   repository.Store
	Indexer search.Indexer
	Favicon FaviconProber
	Logger  *zap.Logger
	Now     func() time.Time
}

type bookmarkService struct {
	store   repository.Store
	indexer search.Indexer
	favicon FaviconProber
	logger  *zap.Logger
	now     func() time.Time
}

// NewBookmarkService returns a service backed by deps.Store. Missing optional
// collaborators fall back to no-op implementations.
func NewBookmarkService(deps BookmarkServiceDeps) BookmarkService {
	s := &bookmarkService{
		store:   deps.Store,
		indexer: deps.Indexer,
		favicon: deps.Favicon,
		logger:  deps.Logger,
		now:     deps.Now,
	}
	if s.indexer == nil {
		s.indexer = search.Nop{}
	}
	if s.favicon == nil {
		s.favicon = NoFaviconProber
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SaveInput captures one user's save of a URL on a site.
type SaveInput struct {
	SiteID      uint
	UserID      uint
	URL         string
	Description string
	Note        string
	Tags        []string
}

// DeleteInput identifies the instance a user asked to delete.
type DeleteInput struct {
	SiteID     uint
	UserID     uint
	InstanceID uint
}

// DeleteOutcome tells the caller what a delete request actually did.
type DeleteOutcome int

const (
	// DeleteSkipped means the requester does not own the instance; nothing changed.
	DeleteSkipped DeleteOutcome = iota
	// DeleteInstanceOnly removed the instance; other users still hold the bookmark.
	DeleteInstanceOnly
	// DeleteCascaded removed the instance and its now orphaned bookmark.
	DeleteCascaded
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteSkipped:
		return "not_owner"
	case DeleteInstanceOnly:
		return "deleted"
	case DeleteCascaded:
		return "cascade"
	default:
		return "unknown"
	}
}

type DeleteResult struct {
	Outcome  DeleteOutcome
	Instance *model.BookmarkInstance
}

func (s *bookmarkService) ListOnSite(ctx context.Context, siteID uint) ([]model.Bookmark, error) {
	list, err := s.store.Bookmarks().ListOnSite(ctx, siteID, 0)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return list, nil
}

func (s *bookmarkService) SavedByUser(ctx context.Context, userID uint, bookmarks []model.Bookmark) (map[uint]bool, error) {
	saved, err := s.store.Bookmarks().SavedByUser(ctx, userID, bookmarkIDs(bookmarks))
	if err != nil {
		return nil, fmt.Errorf("load saved bookmarks: %w", err)
	}
	return saved, nil
}

func bookmarkIDs(bookmarks []model.Bookmark) []uint {
	ids := make([]uint, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.ID)
	}
	return ids
}

func (s *bookmarkService) ListForUser(ctx context.Context, siteID, userID uint) ([]model.BookmarkInstance, error) {
	return s.Recent(ctx, siteID, &userID, 0)
}

func (s *bookmarkService) Recent(ctx context.Context, siteID uint, userID *uint, limit int) ([]model.BookmarkInstance, error) {
	list, err := s.store.Instances().Recent(ctx, siteID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookmark instances: %w", err)
	}
	return list, nil
}

func (s *bookmarkService) TagCloud(ctx context.Context, siteID uint) ([]model.TagCount, error) {
	tags, err := s.store.Tags().Cloud(ctx, siteID, 1)
	if err != nil {
		return nil, fmt.Errorf("tag cloud: %w", err)
	}
	return tags, nil
}

func (s *bookmarkService) TagsForBookmarks(ctx context.Context, siteID uint, bookmarks []model.Bookmark) (map[uint][]model.TagCount, error) {
	tags, err := s.store.Tags().ForBookmarks(ctx, siteID, bookmarkIDs(bookmarks))
	if err != nil {
		return nil, fmt.Errorf("bookmark tags: %w", err)
	}
	return tags, nil
}

func (s *bookmarkService) AlreadySaved(ctx context.Context, siteID, userID uint, url string) (bool, error) {
	ok, err := s.store.Instances().ExistsForUserURL(ctx, siteID, userID, url)
	if err != nil {
		return false, fmt.Errorf("check saved bookmark: %w", err)
	}
	return ok, nil
}

// Save resolves the site's bookmark for input.URL, creating it when missing, and stores
// the user's instance. Both happen in one transaction; ErrDuplicateInstance is returned
// when the user already saved the bookmark. The search index is not touched here: a new
// bookmark reaches it through the RefreshFavicon call that follows every save.
func (s *bookmarkService) Save(ctx context.Context, input SaveInput) (*model.BookmarkInstance, error) {
	var (
		inst    *model.BookmarkInstance
		created bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		b, isNew, err := s.getOrCreateBookmark(ctx, tx, input)
		if err != nil {
			return err
		}
		created = isNew

		tags, err := tx.Tags().Ensure(ctx, input.Tags)
		if err != nil {
			return fmt.Errorf("ensure tags: %w", err)
		}

		inst = &model.BookmarkInstance{
			BookmarkID:  b.ID,
			Bookmark:    *b,
			UserID:      input.UserID,
			Saved:       s.now(),
			Description: input.Description,
			Note:        input.Note,
			Tags:        tags,
		}
		return tx.Instances().Create(ctx, inst)
	})
	if err != nil {
		return nil, fmt.Errorf("save bookmark: %w", err)
	}

	metrics.BookmarksSaved.WithLabelValues(strconv.FormatBool(created)).Inc()
	s.logger.Info("bookmark saved",
		zap.Uint("site_id", input.SiteID),
		zap.Uint("user_id", input.UserID),
		zap.Uint("bookmark_id", inst.BookmarkID),
		zap.Bool("created", created),
	)
	return inst, nil
}

// getOrCreateBookmark is the only place bookmark rows come into existence.
// A new bookmark starts without a favicon and belongs to the saving site. An existing
// bookmark stays locked until tx ends so a concurrent delete cannot orphan the instance.
func (s *bookmarkService) getOrCreateBookmark(ctx context.Context, tx repository.Store, input SaveInput) (*model.Bookmark, bool, error) {
	b, err := tx.Bookmarks().FindOnSiteByURL(ctx, input.SiteID, input.URL)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, repository.ErrBookmarkNotFound) {
		return nil, false, fmt.Errorf("find bookmark: %w", err)
	}

	now := s.now()
	b = &model.Bookmark{
		URL:            input.URL,
		Description:    input.Description,
		Note:           input.Note,
		HasFavicon:     false,
		FaviconChecked: now,
		AdderID:        input.UserID,
		Added:          now,
	}
	if err := tx.Bookmarks().Create(ctx, b, input.SiteID); err != nil {
		return nil, false, fmt.Errorf("create bookmark: %w", err)
	}
	return b, true, nil
}

// RefreshFavicon probes the bookmark's host for /favicon.ico and records the result.
// Probe failures are recorded as "no favicon", never returned.
func (s *bookmarkService) RefreshFavicon(ctx context.Context, bookmarkID uint) (*model.Bookmark, error) {
	b, err := s.store.Bookmarks().GetByID(ctx, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("load bookmark: %w", err)
	}

	found := false
	if faviconURL, ok := b.FaviconURL(true); ok {
		found = s.favicon.Probe(ctx, faviconURL)
	}
	checked := s.now()
	if err := s.store.Bookmarks().UpdateFavicon(ctx, b.ID, found, checked); err != nil {
		return nil, fmt.Errorf("update favicon: %w", err)
	}
	b.HasFavicon = found
	b.FaviconChecked = checked

	metrics.FaviconChecks.WithLabelValues(strconv.FormatBool(found)).Inc()
	s.publish(ctx, b)
	return b, nil
}

// Delete removes the user's instance and, when it was the last one, its bookmark.
// A requester who does not own the instance gets DeleteSkipped and nothing changes.
func (s *bookmarkService) Delete(ctx context.Context, input DeleteInput) (*DeleteResult, error) {
	inst, err := s.store.Instances().GetOnSite(ctx, input.SiteID, input.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("load bookmark instance: %w", err)
	}

	result := &DeleteResult{Outcome: DeleteSkipped, Instance: inst}
	if inst.UserID != input.UserID {
		s.logger.Warn("delete of foreign bookmark instance ignored",
			zap.Uint("instance_id", inst.ID),
			zap.Uint("owner_id", inst.UserID),
			zap.Uint("requester_id", input.UserID),
		)
		metrics.InstancesDeleted.WithLabelValues(result.Outcome.String()).Inc()
		return result, nil
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		// Concurrent deletes of the last two instances would each still count the other.
		if err := tx.Bookmarks().Lock(ctx, inst.BookmarkID); err != nil {
			return err
		}
		if err := tx.Instances().Delete(ctx, inst.ID); err != nil {
			return err
		}
		remaining, err := tx.Bookmarks().CountInstances(ctx, inst.BookmarkID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			result.Outcome = DeleteInstanceOnly
			return nil
		}
		result.Outcome = DeleteCascaded
		return tx.Bookmarks().Delete(ctx, inst.BookmarkID)
	})
	if err != nil {
		return nil, fmt.Errorf("delete bookmark instance: %w", err)
	}

	metrics.InstancesDeleted.WithLabelValues(result.Outcome.String()).Inc()
	if result.Outcome == DeleteCascaded {
		s.remove(ctx, inst.BookmarkID)
	}
	return result, nil
}

func (s *bookmarkService) Reindex(ctx context.Context) (int, error) {
	n := 0
	err := s.store.Bookmarks().EachBatch(ctx, func(batch []model.Bookmark) error {
		for i := range batch {
			if err := s.indexer.Upsert(ctx, &batch[i]); err != nil {
				metrics.SearchEvents.WithLabelValues(search.ActionUpsert, "error").Inc()
				return fmt.Errorf("index bookmark %d: %w", batch[i].ID, err)
			}
			metrics.SearchEvents.WithLabelValues(search.ActionUpsert, "ok").Inc()
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("reindex bookmarks: %w", err)
	}
	return n, nil
}

func (s *bookmarkService) publish(ctx context.Context, b *model.Bookmark) {
	if err := s.indexer.Upsert(ctx, b); err != nil {
		metrics.SearchEvents.WithLabelValues(search.ActionUpsert, "error").Inc()
		s.logger.Error("search index upsert failed", zap.Uint("bookmark_id", b.ID), zap.Error(err))
		return
	}
	metrics.SearchEvents.WithLabelValues(search.ActionUpsert, "ok").Inc()
}

func (s *bookmarkService) remove(ctx context.Context, bookmarkID uint) {
	if err := s.indexer.Remove(ctx, bookmarkID); err != nil {
		metrics.SearchEvents.WithLabelValues(search.ActionRemove, "error").Inc()
		s.logger.Error("search index remove failed", zap.Uint("bookmark_id", bookmarkID), zap.Error(err))
		return
	}
	metrics.SearchEvents.WithLabelValues(search.ActionRemove, "ok").Inc()
}
