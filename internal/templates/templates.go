// Package templates renders pyramid deliverables from embedded templates.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.tmpl
var templateFS embed.FS

// Name identifies an embedded template.
type Name string

const (
	// Pyramid is the markdown deliverable.
	Pyramid Name = "pyramid.md.tmpl"
	// Principles is the reference card served to clients.
	Principles Name = "principles.md.tmpl"
)

// PrinciplesData carries the configured policy shown on the reference card.
type PrinciplesData struct {
	MinCategories    int
	MaxCategories    int
	OverallThreshold float64
	AspectFloor      float64
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"title": func(v any) string {
		s := fmt.Sprint(v)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"pct": func(f float64) string { return fmt.Sprintf("%.0f%%", 100*f) },
	"add": func(a, b int) int { return a + b },
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name Name, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Markdown renders the document as a markdown report.
func (r *Renderer) Markdown(doc Document) (string, error) {
	return r.Render(Pyramid, doc)
}

// Principles renders the reference card.
func (r *Renderer) Principles(data PrinciplesData) (string, error) {
	return r.Render(Principles, data)
}

// JSON marshals the document with two-space indentation.
func JSON(doc Document) (json.RawMessage, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return data, nil
}
