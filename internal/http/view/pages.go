package view

import (
	"bytes"
	"html/template"

	"github.com/sifan077/bookmarks/internal/app/form"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/tagging"
)

// Page carries what every page shows around its content.
type Page struct {
	Title    string
	Site     *model.Site
	User     *model.User
	Flash    string
	TagCloud []model.TagCount
	// Vars holds the variables bound by the recent-bookmarks directives.
	Vars map[string]any
}

// BookmarkRow is one canonical bookmark on the list page.
type BookmarkRow struct {
	Bookmark   model.Bookmark
	FaviconURL string
	Tags       []model.TagCount
	// Saved marks bookmarks the viewer holds an instance of.
	Saved bool
}

type BookmarksPageData struct {
	Page
	Bookmarks []BookmarkRow
}

type YourBookmarksPageData struct {
	Page
	Instances []model.BookmarkInstance
}

type AddPageData struct {
	Page
	Rows           []form.Row
	NonFieldErrors []string
	// Bookmarklet is a javascript: URL and must stay a template.URL.
	Bookmarklet template.URL
}

type ErrorPageData struct {
	Page
	Status  int
	Message string
}

var funcs = template.FuncMap{
	// instances normalises the value a recent directive bound, which is a single
	// instance for a count of 1 and a slice otherwise.
	"instances": func(v any) []model.BookmarkInstance {
		switch x := v.(type) {
		case []model.BookmarkInstance:
			return x
		case *model.BookmarkInstance:
			if x == nil {
				return nil
			}
			return []model.BookmarkInstance{*x}
		default:
			return nil
		}
	},
	// tagline shows an instance's tags the way they are typed into the add form.
	"tagline": func(i model.BookmarkInstance) string {
		return tagging.Format(i.TagNames())
	},
	"date": func(v interface{ Format(string) string }) string {
		return v.Format("Jan 2, 2006 15:04")
	},
}

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}{{with .Site}} · {{.Name}}{{end}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			--danger: #fca5a5;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		a { color: var(--accent); }
		header, main { width: min(1080px, 94vw); margin: 0 auto; }
		header { display: flex; justify-content: space-between; align-items: center; padding: 24px 0; }
		header nav a { margin-left: 16px; text-decoration: none; }
		main { display: grid; grid-template-columns: 1fr 280px; gap: 24px; padding-bottom: 48px; }
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 24px;
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		.flash {
			grid-column: 1 / -1;
			padding: 14px 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
		}
		ul.bookmarks { list-style: none; padding: 0; margin: 0; }
		ul.bookmarks li { padding: 14px 0; border-bottom: 1px solid var(--border); }
		ul.bookmarks li.saved { border-left: 3px solid var(--accent-strong); padding-left: 12px; }
		ul.bookmarks img { width: 16px; height: 16px; vertical-align: middle; margin-right: 6px; }
		.meta { font-size: 0.85rem; color: var(--muted); margin-top: 4px; }
		.tag { display: inline-block; margin-right: 6px; font-size: 0.8rem; color: var(--muted); }
		.errors { color: var(--danger); margin: 6px 0; padding-left: 18px; }
		label { display: block; margin: 14px 0 6px; color: var(--muted); }
		input[type=text], textarea {
			width: 100%;
			padding: 10px 12px;
			border-radius: 10px;
			border: 1px solid var(--border);
			background: rgba(0,0,0,0.25);
			color: var(--text);
		}
		button, a.button {
			display: inline-flex;
			align-items: center;
			padding: 0 28px;
			height: 44px;
			margin-top: 18px;
			border: 0;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			text-decoration: none;
			cursor: pointer;
		}
	</style>
</head>
<body>
	<header>
		<strong>{{with .Site}}{{.Name}}{{else}}Bookmarks{{end}}</strong>
		<nav>
			<a href="/">All bookmarks</a>
			{{if .User}}
			<a href="/your_bookmarks/">Your bookmarks</a>
			<a href="/add/">Add bookmark</a>
			<span class="meta">{{.User.Username}}</span>
			{{end}}
		</nav>
	</header>
	<main>
		{{with .Flash}}<div class="flash">{{.}}</div>{{end}}
		<section class="card">{{template "content" .}}</section>
		<aside class="card">
			<h3>Tags</h3>
			{{range .TagCloud}}<span class="tag">{{.Name}} ({{.Count}})</span>{{else}}<p class="meta">No tags yet.</p>{{end}}
			{{with index .Vars "recent_bookmarks"}}
			<h3>Recently saved</h3>
			<ul class="bookmarks">{{range instances .}}<li><a href="{{.Bookmark.URL}}">{{.Description}}</a><div class="meta">{{.User.Username}}</div></li>{{end}}</ul>
			{{end}}
			{{with index .Vars "user_recent_bookmarks"}}
			<h3>Your latest</h3>
			<ul class="bookmarks">{{range instances .}}<li><a href="{{.Bookmark.URL}}">{{.Description}}</a></li>{{end}}</ul>
			{{end}}
		</aside>
	</main>
</body>
</html>
{{define "content"}}{{end}}`

const bookmarksHTML = `{{define "content"}}
<h1>All bookmarks</h1>
{{if .Bookmarks}}
<ul class="bookmarks">
	{{range .Bookmarks}}
	<li{{if .Saved}} class="saved"{{end}}>
		{{with .FaviconURL}}<img src="{{.}}" alt="" />{{end}}
		<a href="{{.Bookmark.URL}}">{{.Bookmark.Description}}</a>
		{{with .Bookmark.Note}}<p>{{.}}</p>{{end}}
		<div class="meta">
			first saved by {{.Bookmark.Adder.Username}} on {{date .Bookmark.Added}}
			{{if .Saved}}· in your bookmarks{{end}}
		</div>
		{{range .Tags}}<span class="tag">{{.Name}} ({{.Count}})</span>{{end}}
	</li>
	{{end}}
</ul>
{{else}}
<p class="meta">No bookmarks yet.</p>
{{end}}
{{end}}`

const yourBookmarksHTML = `{{define "content"}}
<h1>Your bookmarks</h1>
{{if .Instances}}
<ul class="bookmarks">
	{{range .Instances}}
	<li>
		<a href="{{.Bookmark.URL}}">{{.Description}}</a>
		{{with .Note}}<p>{{.}}</p>{{end}}
		<div class="meta">
			saved {{date .Saved}} ·
			<a href="/{{.ID}}/delete/?next=/your_bookmarks/">delete</a>
		</div>
		{{with tagline .}}<span class="tag">{{.}}</span>{{end}}
	</li>
	{{end}}
</ul>
{{else}}
<p class="meta">You have not saved any bookmarks yet. <a href="/add/">Add one</a>.</p>
{{end}}
{{end}}`

const addHTML = `{{define "content"}}
<h1>Add bookmark</h1>
{{with .NonFieldErrors}}<ul class="errors">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
<form method="post" action="/add/">
	{{range .Rows}}
	<label for="id_{{.Name}}">{{.Label}}</label>
	{{if eq .Widget "textarea"}}
	<textarea id="id_{{.Name}}" name="{{.Name}}" rows="4">{{.Value}}</textarea>
	{{else if eq .Widget "checkbox"}}
	<input type="checkbox" id="id_{{.Name}}" name="{{.Name}}"{{if .Checked}} checked{{end}} />
	{{else}}
	<input type="text" id="id_{{.Name}}" name="{{.Name}}" value="{{.Value}}"{{if .Size}} size="{{.Size}}"{{end}} />
	{{end}}
	{{with .Errors}}<ul class="errors">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
	{{end}}
	<button type="submit">Save bookmark</button>
</form>
<p class="meta">Drag this to your bookmarks bar to save pages in one click:
	<a class="button" href="{{.Bookmarklet}}">Bookmark this</a>
</p>
{{end}}`

const errorHTML = `{{define "content"}}
<h1>{{.Status}}</h1>
<p>{{.Message}}</p>
<a class="button" href="/">Back to bookmarks</a>
{{end}}`

var (
	layoutTmpl        = template.Must(template.New("layout").Funcs(funcs).Parse(layoutHTML))
	bookmarksTmpl     = page(bookmarksHTML)
	yourBookmarksTmpl = page(yourBookmarksHTML)
	addTmpl           = page(addHTML)
	errorTmpl         = page(errorHTML)
)

func page(content string) *template.Template {
	return template.Must(template.Must(layoutTmpl.Clone()).Parse(content))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderBookmarks renders the site's bookmark list.
func RenderBookmarks(data BookmarksPageData) (string, error) {
	if data.Title == "" {
		data.Title = "All bookmarks"
	}
	return render(bookmarksTmpl, data)
}

func RenderYourBookmarks(data YourBookmarksPageData) (string, error) {
	if data.Title == "" {
		data.Title = "Your bookmarks"
	}
	return render(yourBookmarksTmpl, data)
}

func RenderAdd(data AddPageData) (string, error) {
	if data.Title == "" {
		data.Title = "Add bookmark"
	}
	return render(addTmpl, data)
}

func RenderError(data ErrorPageData) (string, error) {
	if data.Title == "" {
		data.Title = "Error"
	}
	return render(errorTmpl, data)
}
