// types.go - Core types for site assembly: sections, layout, manifest
package site

import (
	"path"
	"time"

	"docsite-generator/internal/bundle"
	"docsite-generator/internal/prompts"
	"docsite-generator/internal/utils"
)

// Section status values. A section starts pending and must end in one
// of the terminal statuses before the manifest is written.
const (
	StatusPending   = "pending"
	StatusGenerated = "generated"
	StatusReused    = "reused"
	StatusFailed    = "failed"
)

// Run modes accepted by the assembler and the pipeline.
const (
	ModeFresh        = "fresh"
	ModeRevise       = "revise"
	ModeTemplateOnly = "template_only"
)

// ContentSection carries one documentation page through the pipeline,
// from prompt resolution to its terminal status in the manifest.
type ContentSection struct {
	SectionID  string
	Title      string
	TargetPath string // relative to the output root, forward slashes

	ResolvedPrompt *prompts.Resolved
	Bundle         *bundle.ContextBundle

	// ExistingContent holds the full on-disk page in revision mode,
	// including any human edits outside the managed region.
	ExistingContent  string
	GeneratedContent string

	Fingerprint string
	Status      string
	StatusNote  string
}

// SectionSpec describes one page slot in the site layout.
type SectionSpec struct {
	ID         string
	Title      string
	PromptPath string // slash-separated path into the prompt tree
	Filename   string // output filename without extension
}

// LayoutSpec fixes the page set, ordering and naming of the generated
// site. Navigation always follows Sections order.
type LayoutSpec struct {
	Sections  []SectionSpec
	Extension string
	DocsDir   string
	Title     string
	Tagline   string
}

// DefaultLayout returns the built-in five-section layout plus the
// generated index page.
func DefaultLayout() LayoutSpec {
	return LayoutSpec{
		Sections: []SectionSpec{
			{ID: "overview", Title: "Overview", PromptPath: "docgen/overview", Filename: "overview"},
			{ID: "installation", Title: "Installation", PromptPath: "docgen/installation", Filename: "installation"},
			{ID: "api", Title: "API Reference", PromptPath: "docgen/api", Filename: "api"},
			{ID: "development", Title: "Development", PromptPath: "docgen/development", Filename: "development"},
			{ID: "contributing", Title: "Contributing", PromptPath: "docgen/contributing", Filename: "contributing"},
		},
		Extension: ".md",
		DocsDir:   "docs",
		Title:     "Documentation",
		Tagline:   "Generated project documentation",
	}
}

// Select returns a copy of the layout restricted to the named section
// ids, keeping layout order. Unknown ids are ignored. An empty filter
// returns the layout unchanged.
func (l LayoutSpec) Select(ids []string) LayoutSpec {
	if len(ids) == 0 {
		return l
	}
	wanted := utils.StringSlice2Map(ids)
	selected := l
	selected.Sections = nil
	for _, spec := range l.Sections {
		if _, ok := wanted[spec.ID]; ok {
			selected.Sections = append(selected.Sections, spec)
		}
	}
	return selected
}

// TargetPath returns a section's page location relative to the output
// root.
func (l LayoutSpec) TargetPath(spec SectionSpec) string {
	return path.Join(l.DocsDir, spec.Filename+l.Extension)
}

// IndexPath returns the index page location relative to the output
// root.
func (l LayoutSpec) IndexPath() string {
	return path.Join(l.DocsDir, "index"+l.Extension)
}

// SectionResult is one section's terminal record in the manifest.
type SectionResult struct {
	SectionID   string `json:"section_id"`
	Status      string `json:"status"`
	TargetPath  string `json:"target_path"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Note        string `json:"note,omitempty"`
}

// SiteManifest is the final artifact of a run. It records every
// section's terminal status so partial success stays distinguishable
// from total failure.
type SiteManifest struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Mode        string          `json:"mode"`
	ModelRef    string          `json:"model_ref,omitempty"`
	Title       string          `json:"title"`
	Sections    []SectionResult `json:"sections"`
	Navigation  []string        `json:"navigation"`
	Notes       []string        `json:"notes,omitempty"`
	Issues      []Issue         `json:"issues,omitempty"`
}

// Section returns the recorded result for a section id, or nil when the
// manifest does not know the section.
func (m *SiteManifest) Section(id string) *SectionResult {
	for i := range m.Sections {
		if m.Sections[i].SectionID == id {
			return &m.Sections[i]
		}
	}
	return nil
}

// CountByStatus returns how many sections ended in the given status.
func (m *SiteManifest) CountByStatus(status string) int {
	count := 0
	for i := range m.Sections {
		if m.Sections[i].Status == status {
			count++
		}
	}
	return count
}
