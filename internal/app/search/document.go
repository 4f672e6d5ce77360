// Package search projects bookmarks into documents for the external full-text index.
package search

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/sifan077/bookmarks/internal/app/model"
)

// Document is the search engine's view of one bookmark.
type Document struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
	Summary string    `json:"summary"`
	Sites   string    `json:"sites"`
}

// textTmpl renders the document body the index tokenises.
var textTmpl = template.Must(template.New("bookmark_text").Parse(
	`{{.Description}}
{{.URL}}
{{with .Note}}{{.}}
{{end}}`))

// BuildDocument projects b, which must have Adder and Sites loaded.
func BuildDocument(b *model.Bookmark) (Document, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, b); err != nil {
		return Document{}, fmt.Errorf("render search text for bookmark %d: %w", b.ID, err)
	}

	return Document{
		ID:      b.ID,
		Text:    strings.TrimSpace(buf.String()),
		Title:   b.Description,
		Author:  b.Adder.Username,
		PubDate: b.Added,
		Summary: b.Note,
		Sites:   b.SiteSlugs(),
	}, nil
}
