// Package web holds the embedded page templates and browser assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names.
const (
	PageTemplate     = "page.html"
	FallbackTemplate = "fallback.html"
)

// CreatedLayout is the server-side rendering of a user's creation time.
const CreatedLayout = "Jan 2, 2006, 3:04:05 PM"

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"formatCreated": FormatCreated,
	}).ParseFS(templateFS, "templates/*.html")
}

// Static returns the browser assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// FormatCreated renders a millisecond timestamp in the server's local zone.
func FormatCreated(ms int64) string {
	return time.UnixMilli(ms).Local().Format(CreatedLayout)
}
