package view

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/sifan077/bookmarks/internal/app/model"
)

// RecentSource fetches the newest bookmark instances of a site.
type RecentSource interface {
	Recent(ctx context.Context, siteID uint, userID *uint, limit int) ([]model.BookmarkInstance, error)
}

// RecentDirective binds the newest bookmark instances into a template variable.
// Its textual form is
//
//	<count> as <var>
//	<count> for <user-expr> as <var>
//
// where user-expr is a dotted path resolved against the render scope, e.g. "user"
// or "profile.owner". A count of 1 binds a single *model.BookmarkInstance; larger
// counts bind a []model.BookmarkInstance.
type RecentDirective struct {
	Count    int
	UserExpr string
	Var      string
}

// ParseRecent parses a directive. Malformed input is reported here, never at render time.
func ParseRecent(src string) (*RecentDirective, error) {
	args := strings.Fields(src)
	if len(args) != 3 && len(args) != 5 {
		return nil, fmt.Errorf("recent bookmarks %q: expected 3 or 5 arguments, got %d", src, len(args))
	}
	if args[len(args)-2] != "as" {
		return nil, fmt.Errorf("recent bookmarks %q: second to last argument must be 'as'", src)
	}
	if len(args) == 5 && args[1] != "for" {
		return nil, fmt.Errorf("recent bookmarks %q: second argument must be 'for'", src)
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		return nil, fmt.Errorf("recent bookmarks %q: count must be a positive integer", src)
	}

	d := &RecentDirective{Count: count, Var: args[len(args)-1]}
	if len(args) == 5 {
		d.UserExpr = args[2]
	}
	return d, nil
}

// Apply runs the directive for siteID and stores the result in vars[d.Var].
// When the user expression does not resolve to a user, the variable is left unset.
func (d *RecentDirective) Apply(ctx context.Context, source RecentSource, siteID uint, scope, vars map[string]any) error {
	var userID *uint
	if d.UserExpr != "" {
		val, ok := resolve(scope, d.UserExpr)
		if !ok {
			return nil
		}
		id, ok := userIDOf(val)
		if !ok {
			return nil
		}
		userID = &id
	}

	list, err := source.Recent(ctx, siteID, userID, d.Count)
	if err != nil {
		return fmt.Errorf("recent bookmarks for %s: %w", d.Var, err)
	}

	if d.Count == 1 {
		if len(list) == 0 {
			vars[d.Var] = (*model.BookmarkInstance)(nil)
			return nil
		}
		vars[d.Var] = &list[0]
		return nil
	}
	vars[d.Var] = list
	return nil
}

func (d *RecentDirective) String() string {
	if d.UserExpr == "" {
		return fmt.Sprintf("%d as %s", d.Count, d.Var)
	}
	return fmt.Sprintf("%d for %s as %s", d.Count, d.UserExpr, d.Var)
}

// resolve walks a dotted path through maps, structs and pointers.
func resolve(scope map[string]any, expr string) (any, bool) {
	parts := strings.Split(expr, ".")
	cur, ok := scope[parts[0]]
	if !ok {
		return nil, false
	}

	for _, name := range parts[1:] {
		v := reflect.ValueOf(cur)
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			item := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
			if !item.IsValid() {
				return nil, false
			}
			cur = item.Interface()
		case reflect.Struct:
			field := v.FieldByName(name)
			if !field.IsValid() || !field.CanInterface() {
				return nil, false
			}
			cur = field.Interface()
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func userIDOf(val any) (uint, bool) {
	switch u := val.(type) {
	case *model.User:
		if u == nil || u.ID == 0 {
			return 0, false
		}
		return u.ID, true
	case model.User:
		return u.ID, u.ID != 0
	case uint:
		return u, u != 0
	case int:
		return uint(u), u > 0
	default:
		return 0, false
	}
}
