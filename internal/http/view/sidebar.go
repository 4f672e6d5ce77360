package view

import (
	"context"

	"github.com/sifan077/bookmarks/internal/app/model"
)

// Sidebar evaluates the recent-bookmarks directives shown next to every page.
type Sidebar struct {
	source     RecentSource
	directives []*RecentDirective
}

// NewSidebar parses every directive up front so a bad configuration fails at startup.
func NewSidebar(source RecentSource, directives ...string) (*Sidebar, error) {
	s := &Sidebar{source: source}
	for _, src := range directives {
		if src == "" {
			continue
		}
		d, err := ParseRecent(src)
		if err != nil {
			return nil, err
		}
		s.directives = append(s.directives, d)
	}
	return s, nil
}

// Vars runs the directives for one request. The viewer is exposed to the
// directives as "user"; it may be nil for anonymous requests.
func (s *Sidebar) Vars(ctx context.Context, siteID uint, viewer *model.User) (map[string]any, error) {
	vars := make(map[string]any, len(s.directives))
	scope := map[string]any{"user": viewer}
	for _, d := range s.directives {
		if err := d.Apply(ctx, s.source, siteID, scope, vars); err != nil {
			return nil, err
		}
	}
	return vars, nil
}
