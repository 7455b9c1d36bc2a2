// templates.go - Embedded placeholder bodies for template mode and failed sections
package site

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.md"))

type templateData struct {
	SectionID string
	Title     string
	Note      string
}

// PlaceholderBody renders the skeleton body written for a section in
// template mode.
func PlaceholderBody(id, title string) (string, error) {
	return renderTemplate("section_placeholder.md", templateData{SectionID: id, Title: title})
}

// FailedBody renders the body written for a section whose generation
// failed in fresh mode.
func FailedBody(id, title, note string) (string, error) {
	if note == "" {
		note = "generation failed"
	}
	return renderTemplate("section_failed.md", templateData{SectionID: id, Title: title, Note: note})
}

func renderTemplate(name string, data templateData) (string, error) {
	var b strings.Builder
	if err := pageTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return b.String(), nil
}
