// page.go - Page rendering, frontmatter and managed-region markers
package site

import (
	"fmt"
	"path"
	"strings"
)

// BeginMarker returns the comment that opens a section's managed
// region. Text between the begin and end markers is owned by the
// generator; everything outside belongs to humans.
func BeginMarker(id string) string {
	return fmt.Sprintf("<!-- docgen:begin:%s -->", id)
}

// EndMarker returns the comment that closes a section's managed region.
func EndMarker(id string) string {
	return fmt.Sprintf("<!-- docgen:end:%s -->", id)
}

// RenderPage builds a complete page: Docusaurus frontmatter followed by
// the body wrapped in the section's managed-region markers.
func RenderPage(id, title, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("id: %s\n", id))
	b.WriteString(fmt.Sprintf("title: %s\n", title))
	b.WriteString("---\n\n")
	b.WriteString(BeginMarker(id))
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	b.WriteString(EndMarker(id))
	b.WriteString("\n")
	return b.String()
}

// RenderIndexPage builds the landing page. It carries slug: / so the
// site root resolves to it, and links every section in layout order.
func RenderIndexPage(layout LayoutSpec, sections []*ContentSection) string {
	var body strings.Builder
	if layout.Tagline != "" {
		body.WriteString(layout.Tagline)
		body.WriteString("\n\n")
	}
	body.WriteString("## Contents\n\n")
	for _, section := range sections {
		body.WriteString(fmt.Sprintf("- [%s](%s)\n", section.Title, path.Base(section.TargetPath)))
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("id: index\n")
	b.WriteString(fmt.Sprintf("title: %s\n", layout.Title))
	b.WriteString("slug: /\n")
	b.WriteString("---\n\n")
	b.WriteString(BeginMarker("index"))
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(body.String(), "\n"))
	b.WriteString("\n")
	b.WriteString(EndMarker("index"))
	b.WriteString("\n")
	return b.String()
}

// ExtractManagedRegion returns the text between a section's markers.
// The second return is false when either marker is missing.
func ExtractManagedRegion(page, id string) (string, bool) {
	begin, end := BeginMarker(id), EndMarker(id)
	bi := strings.Index(page, begin)
	if bi < 0 {
		return "", false
	}
	rest := page[bi+len(begin):]
	ei := strings.Index(rest, end)
	if ei < 0 {
		return "", false
	}
	return strings.Trim(rest[:ei], "\n"), true
}

// ReplaceManagedRegion swaps the text between a section's markers for
// body, leaving every byte outside the markers untouched. The second
// return is false when either marker is missing, in which case the page
// is returned unchanged.
func ReplaceManagedRegion(page, id, body string) (string, bool) {
	begin, end := BeginMarker(id), EndMarker(id)
	bi := strings.Index(page, begin)
	if bi < 0 {
		return page, false
	}
	rest := page[bi+len(begin):]
	ei := strings.Index(rest, end)
	if ei < 0 {
		return page, false
	}
	var b strings.Builder
	b.WriteString(page[:bi+len(begin)])
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	b.WriteString(page[bi+len(begin)+ei:])
	return b.String(), true
}
