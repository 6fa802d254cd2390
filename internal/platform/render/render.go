// Package render turns record data into HTML fragments. Rendering is a pure
// function of its input: templates are parsed once from the embedded set and
// never touch the store.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds the parsed fragment templates.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"nl2br": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
}

// New parses the embedded templates. Parse failure is a programming error and
// is returned so startup can refuse to continue.
func New() (*Renderer, error) {
	t, err := template.New("fragments").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse fragment templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Render executes the named fragment template with data and returns the HTML.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render fragment %s: %w", name, err)
	}
	return b.String(), nil
}
