// Package form validates the add-bookmark form and saves it through the bookmark service.
package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/app/service"
	"github.com/sifan077/bookmarks/internal/app/tagging"
)

const (
	MaxDescriptionLength = 100

	ErrMsgDuplicate = "You have already bookmarked this link."
	errMsgRequired  = "This field is required."
	errMsgURL       = "Enter a valid URL."
	errMsgTagLength = "Each tag may be no more than 50 characters long."
)

// ErrInvalid is returned by Save when the form does not validate.
var ErrInvalid = errors.New("form is not valid")

// Field describes one form input. The order of BookmarkFields is the display order.
type Field struct {
	Name     string
	Label    string
	Widget   string
	Required bool
	Size     int
}

var BookmarkFields = []Field{
	{Name: "url", Label: "URL", Widget: "text", Required: true, Size: 40},
	{Name: "description", Label: "Description", Widget: "text", Required: true, Size: 40},
	{Name: "note", Label: "Note", Widget: "textarea"},
	{Name: "tags", Label: "Tags", Widget: "text"},
	{Name: "redirect", Label: "Redirect", Widget: "checkbox"},
}

// BookmarkInput is the raw submission; the form tags match the HTML field names.
type BookmarkInput struct {
	URL         string `form:"url" validate:"required,max=511,httpurl"`
	Description string `form:"description" validate:"required,max=100"`
	Note        string `form:"note"`
	Tags        string `form:"tags"`
	Redirect    string `form:"redirect"`
}

// Cleaned holds the normalised values of a valid form.
type Cleaned struct {
	URL         string
	Description string
	Note        string
	Tags        []string
	Redirect    bool
}

// Backend is what the form needs from the bookmark service.
type Backend interface {
	AlreadySaved(ctx context.Context, siteID, userID uint, url string) (bool, error)
	Save(ctx context.Context, input service.SaveInput) (*model.BookmarkInstance, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return isHTTPURL(fl.Field().String())
	})
	return v
}

// BookmarkForm is bound to one user on one site.
type BookmarkForm struct {
	backend Backend
	siteID  uint
	userID  uint

	data           BookmarkInput
	bound          bool
	errors         map[string][]string
	nonFieldErrors []string
	cleaned        *Cleaned
}

func NewBookmarkForm(backend Backend, siteID, userID uint) *BookmarkForm {
	return &BookmarkForm{
		backend: backend,
		siteID:  siteID,
		userID:  userID,
		errors:  map[string][]string{},
	}
}

// Bind attaches submitted data; validation happens in IsValid.
func (f *BookmarkForm) Bind(in BookmarkInput) {
	f.data = in
	f.bound = true
	f.cleaned = nil
	f.errors = map[string][]string{}
	f.nonFieldErrors = nil
}

// SetInitial pre-fills an unbound form, e.g. from bookmarklet query parameters.
func (f *BookmarkForm) SetInitial(in BookmarkInput) {
	in.Description = strings.TrimSpace(in.Description)
	f.data = in
}

// IsValid cleans the bound data and runs every check, including the duplicate check.
// The error is non-nil only when the duplicate lookup itself failed.
func (f *BookmarkForm) IsValid(ctx context.Context) (bool, error) {
	if !f.bound {
		return false, nil
	}
	if f.cleaned != nil {
		return true, nil
	}

	in := f.data
	in.URL = normalizeURL(in.URL)
	in.Description = strings.TrimSpace(in.Description)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, fmt.Errorf("validate bookmark form: %w", err)
		}
		for _, fe := range verrs {
			f.addError(fe.Field(), fieldMessage(fe, in))
		}
	}

	tags := tagging.Parse(in.Tags)
	for _, t := range tags {
		if utf8.RuneCountInString(t) > tagging.MaxTagLength {
			f.addError("tags", errMsgTagLength)
			break
		}
	}

	if len(f.errors) > 0 {
		return false, nil
	}

	saved, err := f.backend.AlreadySaved(ctx, f.siteID, f.userID, in.URL)
	if err != nil {
		return false, err
	}
	if saved {
		f.nonFieldErrors = append(f.nonFieldErrors, ErrMsgDuplicate)
		return false, nil
	}

	f.cleaned = &Cleaned{
		URL:         in.URL,
		Description: in.Description,
		Note:        in.Note,
		Tags:        tags,
		Redirect:    parseBool(in.Redirect),
	}
	return true, nil
}

// Save stores the instance for the form's user. It returns ErrInvalid when the form
// does not validate, including when a concurrent save of the same URL won the race.
func (f *BookmarkForm) Save(ctx context.Context) (*model.BookmarkInstance, error) {
	ok, err := f.IsValid(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalid
	}

	inst, err := f.backend.Save(ctx, service.SaveInput{
		SiteID:      f.siteID,
		UserID:      f.userID,
		URL:         f.cleaned.URL,
		Description: f.cleaned.Description,
		Note:        f.cleaned.Note,
		Tags:        f.cleaned.Tags,
	})
	if errors.Is(err, repository.ErrDuplicateInstance) {
		f.cleaned = nil
		f.nonFieldErrors = append(f.nonFieldErrors, ErrMsgDuplicate)
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ShouldRedirect reports whether the user asked to continue to the saved URL.
func (f *BookmarkForm) ShouldRedirect() bool {
	return f.cleaned != nil && f.cleaned.Redirect
}

// Cleaned returns the normalised values; ok is false until IsValid succeeded.
func (f *BookmarkForm) Cleaned() (Cleaned, bool) {
	if f.cleaned == nil {
		return Cleaned{}, false
	}
	return *f.cleaned, true
}

func (f *BookmarkForm) Errors() map[string][]string { return f.errors }
func (f *BookmarkForm) NonFieldErrors() []string     { return f.nonFieldErrors }

func (f *BookmarkForm) addError(field, msg string) {
	f.errors[field] = append(f.errors[field], msg)
}

// Row is one field ready for rendering.
type Row struct {
	Field
	Value   string
	Checked bool
	Errors  []string
}

// Rows returns the fields in display order with their current values and errors.
func (f *BookmarkForm) Rows() []Row {
	rows := make([]Row, 0, len(BookmarkFields))
	for _, field := range BookmarkFields {
		row := Row{Field: field, Errors: f.errors[field.Name]}
		switch field.Name {
		case "url":
			row.Value = f.data.URL
		case "description":
			row.Value = f.data.Description
		case "note":
			row.Value = f.data.Note
		case "tags":
			row.Value = f.data.Tags
		case "redirect":
			row.Checked = parseBool(f.data.Redirect)
		}
		rows = append(rows, row)
	}
	return rows
}

func fieldMessage(fe validator.FieldError, in BookmarkInput) string {
	switch fe.Tag() {
	case "required":
		return errMsgRequired
	case "httpurl":
		return errMsgURL
	case "max":
		var n int
		switch fe.Field() {
		case "url":
			n = utf8.RuneCountInString(in.URL)
		case "description":
			n = utf8.RuneCountInString(in.Description)
		}
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), n)
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// normalizeURL trims the input and assumes http:// when no scheme was typed.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && !strings.ContainsAny(host, " \t")
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0", "off", "no":
		return false
	default:
		return true
	}
}
